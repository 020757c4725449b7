package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldservice/internal/catalog"
	"fieldservice/pkg/db"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load catalog offerings from a YAML file",
	Long: `Load catalog offerings from a YAML file.

Offerings whose name already exists are left alone, so the command is safe to rerun.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(seedFile)
		if err != nil {
			return err
		}
		defer f.Close()

		inputs, err := catalog.ParseSeed(f)
		if err != nil {
			return err
		}

		pool, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		created, err := catalog.Seed(cmd.Context(), catalog.NewRepository(pool), inputs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d of %d offerings\n", created, len(inputs))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seeds/catalog.yaml", "seed file")
}
