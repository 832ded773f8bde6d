package main

import (
	"fmt"
	"strconv"

	"shotforge/internal/sizing"

	"github.com/spf13/cobra"
)

// newSizesCmd creates the "shotctl sizes" subcommand.
func newSizesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sizes [width height]",
		Short: "List output sizes or pick one for given dimensions",
		Long: "Without arguments, list the supported output sizes in match order.\n" +
			"With a width and height, print the size a screenshot of those dimensions renders at.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("sizes takes either no arguments or <width> <height>, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, s := range sizing.Supported() {
					marker := ""
					if s == sizing.Default {
						marker = " (default)"
					}
					fmt.Fprintf(out, "%-10s ratio %.3f%s\n", s, s.Ratio(), marker)
				}
				return nil
			}

			width, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid width %q", args[0])
			}
			height, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid height %q", args[1])
			}

			best, err := sizing.BestSize(width, height)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, best)
			return nil
		},
	}
}
