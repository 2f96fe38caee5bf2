package main

import (
	"github.com/spf13/cobra"

	"github.com/tokscale/tokscale/internal/config"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the primary auth token",
	}
	cmd.AddCommand(
		newAuthSetTokenCommand(),
		newAuthStatusCommand(),
		newAuthClearCommand(),
	)
	return cmd
}

func newAuthSetTokenCommand() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "set-token <token>",
		Short: "Store the auth token",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := config.SaveToken(args[0], userID); err != nil {
				return err
			}
			return printJSON(struct {
				Path   string `json:"path"`
				UserID string `json:"userId,omitempty"`
			}{config.CredentialsPath(), userID})
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "user id to store alongside the token")
	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a token is stored (the token itself is never printed)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			creds, err := config.LoadCredentials()
			if err != nil {
				return err
			}
			return printJSON(struct {
				Configured bool   `json:"configured"`
				UserID     string `json:"userId,omitempty"`
				SavedAt    string `json:"savedAt,omitempty"`
				Path       string `json:"path"`
			}{creds.Token != "", creds.UserID, creds.SavedAt, config.CredentialsPath()})
		},
	}
}

func newAuthClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.ClearCredentials(); err != nil {
				return err
			}
			return printJSON(struct {
				Cleared bool `json:"cleared"`
			}{true})
		},
	}
}
