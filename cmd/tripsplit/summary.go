package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tripsplit/internal/client"
	"tripsplit/internal/money"
)

func summaryCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the current balance summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.New(serverURL)
			snap, err := api.State(cmd.Context())
			if err != nil {
				return err
			}

			if len(snap.Summary) == 0 {
				fmt.Println("No people yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPAID\tCONSUMED\tNET")
			for _, row := range snap.Summary {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\n",
					row.Name, money.Round(row.Paid), money.Round(row.Consumed), money.Round(row.Net))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\n%d receipts\n", len(snap.Receipts))
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "tripsplit server URL")
	return cmd
}
