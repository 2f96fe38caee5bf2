package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tokscale/tokscale/internal/config"
	"github.com/tokscale/tokscale/internal/pricing"
)

func newPricingCommand() *cobra.Command {
	var (
		source  string
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "pricing <model>",
		Short: "Resolve a model id to per-token rates with provenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			forced, err := parseSource(source)
			if err != nil {
				return err
			}
			home, err := config.Home()
			if err != nil {
				return err
			}

			svc := pricing.Shared(config.CacheDirFor(home))
			svc.Offline = offline
			if err := svc.Load(cmd.Context()); err != nil {
				return fmt.Errorf("initializing pricing: %w", err)
			}

			match, ok := svc.Lookup(args[0], forced)
			if !ok {
				return fmt.Errorf("no pricing found for %q", args[0])
			}
			return printJSON(struct {
				Model  string         `json:"model"`
				Key    string         `json:"matchedKey"`
				Source pricing.Source `json:"source"`
				Rates  pricing.Record `json:"rates"`
			}{args[0], match.Key, match.Source, match.Record})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "restrict to one catalog: litellm or openrouter")
	cmd.Flags().BoolVar(&offline, "offline", false, "resolve from the disk cache only")
	return cmd
}
