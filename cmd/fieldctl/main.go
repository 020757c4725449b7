// Command fieldctl is the operator CLI: schema migrations, catalog seeding, staff tokens,
// one-off invoice sweeps and chat channel tailing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldservice/pkg/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "fieldctl",
	Short:         "Operate the field service backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, tokenCmd, sweepCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fieldctl: %v\n", err)
		os.Exit(1)
	}
}
