package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"shotforge/internal/handlers"

	"github.com/spf13/cobra"
)

var errNoPassword = errors.New("no password configured yet; set one up in the dashboard first")

// newResetPasswordCmd creates the "shotctl reset-password" subcommand.
func newResetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password",
		Short: "Reset the dashboard password",
		Long:  "Prompt for a new dashboard password and replace the stored one.\nAll existing sessions are invalidated.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			_, db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer closeDatabase(cmd, db)

			if !db.HasUsers(ctx) {
				return errNoPassword
			}

			password, err := passwordReader("New Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			confirm, err := passwordReader("Confirm Password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			if !bytes.Equal(password, confirm) {
				return errors.New("passwords do not match")
			}
			if msg := handlers.ValidatePasswordLength(string(password)); msg != "" {
				return errors.New(msg)
			}

			if err := db.UpdatePassword(ctx, string(password)); err != nil {
				return fmt.Errorf("update password: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Password updated successfully.")
			fmt.Fprintln(cmd.OutOrStdout(), "All existing sessions have been invalidated.")
			return nil
		},
	}
}
