// Package main provides the tripsplit binary entry point.
// Tripsplit tracks shared trip expenses: receipts scanned from Greek
// e-invoice QR codes, split per item among a group, with a running
// balance of who owes whom.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tripsplit/pkg/logging"
)

const (
	Version = "1.0.0"
	appName = "tripsplit"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Shared trip expense tracker",
		Long: `Tripsplit tracks shared trip expenses. Receipts come in as photos of
Greek e-invoice QR codes or as raw invoice HTML; items are split among
the group and every person's paid/consumed/net balance is derived from
the full set of receipts.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Missing .env is fine; the environment still applies.
			_ = godotenv.Load()
			logging.Setup()
		},
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(summaryCmd())
	cmd.AddCommand(compressCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}
