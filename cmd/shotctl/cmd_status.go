package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"shotforge/internal/database"
	"shotforge/internal/filesystem"
	"shotforge/internal/startup"

	"github.com/spf13/cobra"
)

// statusReport is what "shotctl status" prints.
type statusReport struct {
	Version        string                   `json:"version"`
	ScreenshotsDir string                   `json:"screenshotsDir"`
	Pending        int                      `json:"pending"`
	OutputsDir     string                   `json:"outputsDir"`
	Outputs        int                      `json:"outputs"`
	DatabasePath   string                   `json:"databasePath"`
	AuthConfigured bool                     `json:"authConfigured"`
	AuthEnabled    bool                     `json:"authEnabled"`
	APIConfigured  bool                     `json:"apiConfigured"`
	History        database.GenerationStats `json:"history"`
}

// countImages returns -1 when dir cannot be listed.
func countImages(dir string) int {
	files, err := filesystem.ListImages(dir)
	if err != nil {
		return -1
	}
	return len(files)
}

func buildStatus(ctx context.Context, config *startup.Config, db *database.Database) (statusReport, error) {
	stats, err := db.GetGenerationStats(ctx)
	if err != nil {
		return statusReport{}, err
	}
	return statusReport{
		Version:        startup.Version,
		ScreenshotsDir: config.ScreenshotsDir,
		Pending:        countImages(config.ScreenshotsDir),
		OutputsDir:     config.OutputsDir,
		Outputs:        countImages(config.OutputsDir),
		DatabasePath:   config.DatabasePath,
		AuthConfigured: db.HasUsers(ctx),
		AuthEnabled:    config.AuthEnabled,
		APIConfigured:  config.RequireAPI() == nil,
		History:        stats,
	}, nil
}

func countString(n int) string {
	if n < 0 {
		return "unreadable"
	}
	return fmt.Sprintf("%d images", n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printStatus(w io.Writer, r statusReport) {
	fmt.Fprintf(w, "shotforge %s\n\n", r.Version)
	fmt.Fprintf(w, "Screenshots:  %s (%s)\n", r.ScreenshotsDir, countString(r.Pending))
	fmt.Fprintf(w, "Outputs:      %s (%s)\n", r.OutputsDir, countString(r.Outputs))
	fmt.Fprintf(w, "Database:     %s\n", r.DatabasePath)
	fmt.Fprintf(w, "API key set:  %s\n", yesNo(r.APIConfigured))
	fmt.Fprintf(w, "Auth:         enabled=%s password=%s\n", yesNo(r.AuthEnabled), yesNo(r.AuthConfigured))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Generations:  %d total, %d done, %d failed\n", r.History.Total, r.History.Done, r.History.Failed)
	fmt.Fprintf(w, "              %d fallback prompts, %d manual, %d sources left behind\n",
		r.History.Fallbacks, r.History.Manual, r.History.Leftovers)
	if !r.History.LastFinish.IsZero() {
		fmt.Fprintf(w, "Last run:     %s\n", r.History.LastFinish.Format(time.RFC3339))
	}
}

// newStatusCmd creates the "shotctl status" subcommand.
func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show directories, auth state and generation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			config, db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer closeDatabase(cmd, db)

			report, err := buildStatus(ctx, config, db)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printStatus(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
