package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shotforge/internal/database"
	"shotforge/internal/pipeline"
	"shotforge/internal/startup"

	"github.com/spf13/cobra"
)

// newProcessCmd creates the "shotctl process" subcommand.
func newProcessCmd() *cobra.Command {
	var keep, noRecord bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Run the pipeline once on a single screenshot",
		Long: "Describe, generate and download an image for one file, exactly as the\n" +
			"watcher would. The source is deleted afterwards unless --keep is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if info, err := os.Stat(path); err != nil {
				return err
			} else if info.IsDir() {
				return fmt.Errorf("%s is a directory", args[0])
			}

			config, err := startup.LoadQuietConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.RequireAPI(); err != nil {
				return err
			}
			if err := os.MkdirAll(config.OutputsDir, 0o755); err != nil {
				return fmt.Errorf("create outputs directory: %w", err)
			}

			var recorder pipeline.Recorder
			if !noRecord {
				if err := os.MkdirAll(config.DatabaseDir, 0o755); err == nil {
					db, err := database.New(cmd.Context(), config.DatabasePath)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history not recorded: %v\n", err)
					} else {
						defer closeDatabase(cmd, db)
						recorder = db
					}
				}
			}

			p, clients, err := pipeline.FromConfig(config, recorder, keep)
			if err != nil {
				return err
			}
			if clients.VisionErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: vision unavailable, using fallback prompt: %v\n", clients.VisionErr)
			}

			out := p.Process(cmd.Context(), path)
			fmt.Fprintln(cmd.OutOrStdout(), pipeline.Describe(out))

			switch {
			case out.Stage == pipeline.StageDone:
				return nil
			case errors.Is(out.Err, pipeline.ErrNotReady):
				return fmt.Errorf("%s is still being written", filepath.Base(path))
			default:
				return errors.New("processing failed")
			}
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "keep the source file after a successful run")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not write the run to the history database")
	return cmd
}
