package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokscale/tokscale/internal/clients"
	"github.com/tokscale/tokscale/internal/config"
	"github.com/tokscale/tokscale/internal/report"
	"github.com/tokscale/tokscale/internal/watch"
)

func newWatchCommand() *cobra.Command {
	var (
		flags    reportFlags
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-print the report whenever session files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			home, err := config.Home()
			if err != nil {
				return err
			}

			ids := opts.Clients
			if len(ids) == 0 {
				ids = clients.IDs()
			}
			w, err := watch.New(home, ids, interval)
			if err != nil {
				return err
			}
			defer w.Close()
			log.Printf("[watch] %d root(s)", len(w.Roots()))

			render := func() {
				rep, err := report.Generate(cmd.Context(), opts)
				if err != nil {
					fmt.Fprintf(os.Stderr, "tokscale: %v\n", err)
					return
				}
				if err := printJSON(rep); err != nil {
					fmt.Fprintf(os.Stderr, "tokscale: %v\n", err)
				}
			}
			render()

			if err := w.Run(cmd.Context(), render); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", watch.DefaultDebounce, "quiet period between a change and the re-run")
	return cmd
}
