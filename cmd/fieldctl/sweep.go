package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fieldservice/internal/invoice"
	"fieldservice/pkg/db"
)

var sweepDueAfter time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark sent invoices past due as overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		due := sweepDueAfter
		if due <= 0 {
			due = cfg.Invoices.DueAfter
		}
		d := invoice.Delivery{Repo: invoice.NewRepository(pool)}
		n, err := d.SweepOverdue(cmd.Context(), due)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d invoice(s) marked overdue\n", n)
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepDueAfter, "due-after", 0, "age after sending at which an invoice is overdue (default INVOICE_DUE_DAYS)")
}
