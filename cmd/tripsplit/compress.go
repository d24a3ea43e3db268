package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripsplit/internal/imaging"
)

func compressCmd() *cobra.Command {
	var (
		output string
		budget int
	)

	cmd := &cobra.Command{
		Use:   "compress <image>",
		Short: "Compress a receipt photo to the upload budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			compressor := imaging.New(imaging.WithBudget(budget))
			compressed, result := compressor.Compress(data)

			if output == "" {
				output = args[0] + ".compressed.jpg"
			}
			if err := os.WriteFile(output, compressed, 0644); err != nil {
				return err
			}

			fmt.Printf("%s: %d -> %d bytes", args[0], len(data), len(compressed))
			if result.Reencoded {
				fmt.Printf(" (scale %.2f, quality %d, %d attempts)", result.Scale, result.Quality, result.Attempts)
			}
			if !result.WithinBudget {
				fmt.Printf(" [over budget, best effort]")
			}
			fmt.Printf("\nwrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: <image>.compressed.jpg)")
	cmd.Flags().IntVar(&budget, "budget", imaging.DefaultBudget, "Byte budget")
	return cmd
}
