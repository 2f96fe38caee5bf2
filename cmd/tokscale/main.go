package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	if debugEnabled() {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tokscale: %v\n", err)
		os.Exit(1)
	}
}

func debugEnabled() bool {
	v := os.Getenv("TOKSCALE_DEBUG")
	return v != "" && v != "0" && v != "false"
}

func newRootCommand() *cobra.Command {
	var flags reportFlags

	root := &cobra.Command{
		Use:           "tokscale",
		Short:         "Tokscale reports AI coding token usage and spend across local clients.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), &flags, fullReport)
		},
	}
	flags.register(root)

	root.AddCommand(
		newReportCommand(),
		newGraphCommand(),
		newModelsCommand(),
		newMonthlyCommand(),
		newClientsCommand(),
		newPricingCommand(),
		newCursorCommand(),
		newAuthCommand(),
		newHeadlessCommand(),
		newWatchCommand(),
		newVersionCommand(),
	)
	return root
}
