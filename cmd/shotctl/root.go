package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"shotforge/internal/database"
	"shotforge/internal/startup"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// defaultTimeout bounds database work for a single command.
const defaultTimeout = 30 * time.Second

// passwordReader reads a secret without echo. Tests replace it.
var passwordReader = func(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// newRootCmd creates the root shotctl command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "shotctl",
		Short:         "Manage a shotforge installation",
		Long:          "shotctl inspects and maintains a shotforge installation.\nIt reads the same environment and paths file as the server.",
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("shotctl {{.Version}}\n")

	cmd.AddCommand(
		newResetPasswordCmd(),
		newStatusCmd(),
		newProcessCmd(),
		newSizesCmd(),
	)

	return cmd
}

// openDatabase loads the quiet config and opens the history database.
func openDatabase(ctx context.Context) (*startup.Config, *database.Database, error) {
	config, err := startup.LoadQuietConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(config.DatabaseDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s (check DATABASE_DIR): %w", config.DatabasePath, err)
	}
	return config, db, nil
}

func closeDatabase(cmd *cobra.Command, db *database.Database) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close database: %v\n", err)
	}
}
