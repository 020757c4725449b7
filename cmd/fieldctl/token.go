package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fieldservice/pkg/authtoken"
)

var (
	tokenStaffID string
	tokenName    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a staff bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := authtoken.Issue(cfg.Auth.JWTSecret, cfg.Auth.Issuer, tokenStaffID, tokenName, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenStaffID, "staff-id", "", "staff member id (token subject)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("staff-id")
}
