package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokscale/tokscale/internal/appupdate"
	"github.com/tokscale/tokscale/internal/version"
)

func newVersionCommand() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Println("tokscale " + version.String())
			if !check {
				return nil
			}

			result, err := appupdate.Check(cmd.Context(), appupdate.CheckOptions{
				CurrentVersion: version.Version,
			})
			if err != nil {
				return fmt.Errorf("checking for updates: %w", err)
			}
			switch {
			case result.CurrentVersion == "":
				fmt.Println("development build, update check skipped")
			case result.UpdateAvailable:
				fmt.Printf("update available: %s (installed %s)\n", result.LatestVersion, result.CurrentVersion)
				fmt.Printf("  upgrade: %s\n", result.UpgradeHint)
			default:
				fmt.Println("up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check GitHub releases for a newer version")
	return cmd
}
