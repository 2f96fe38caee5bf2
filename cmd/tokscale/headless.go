package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tokscale/tokscale/internal/config"
	"github.com/tokscale/tokscale/internal/headless"
)

func newHeadlessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "headless <client> [args...]",
		Short: "Run a client with its stdout captured for later parsing",
		Long: "Spawns the client binary with the given arguments, copying its stdout " +
			"into a capture file under the headless root. Stdin, stderr and the exit " +
			"code pass through untouched.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.Home()
			if err != nil {
				return err
			}
			code, err := headless.Run(cmd.Context(), home, args[0], args[1:])
			if err != nil {
				return err
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	// Flags after the client name belong to the client.
	cmd.Flags().SetInterspersed(false)
	return cmd
}
