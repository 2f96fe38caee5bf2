package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tokscale/tokscale/internal/pricing"
	"github.com/tokscale/tokscale/internal/report"
	"github.com/tokscale/tokscale/internal/stats"
)

// reportFlags are shared by every report-shaped command.
type reportFlags struct {
	clients []string
	year    string
	since   string
	until   string
	groupBy string
	source  string
	offline bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.clients, "client", nil, "limit to a client id (repeatable)")
	cmd.Flags().StringVar(&f.year, "year", "", "limit to a calendar year (YYYY)")
	cmd.Flags().StringVar(&f.since, "since", "", "first date included (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "last date included (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.groupBy, "group-by", "", "model grouping: model, client-model or client-provider-model")
	cmd.Flags().StringVar(&f.source, "source", "", "pricing catalog: litellm or openrouter")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "resolve pricing from the disk cache only")
}

func (f *reportFlags) options() (report.Options, error) {
	opts := report.Options{
		Clients: f.clients,
		Year:    f.year,
		Since:   f.since,
		Until:   f.until,
		Offline: f.offline,
	}
	if f.groupBy != "" {
		gb := stats.ParseGroupBy(f.groupBy)
		if string(gb) != strings.ToLower(strings.TrimSpace(f.groupBy)) {
			return opts, fmt.Errorf("unknown group-by %q", f.groupBy)
		}
		opts.GroupBy = gb
	}
	forced, err := parseSource(f.source)
	if err != nil {
		return opts, err
	}
	opts.Source = forced
	return opts, nil
}

func parseSource(s string) (pricing.Source, error) {
	switch src := pricing.Source(strings.ToLower(strings.TrimSpace(s))); src {
	case "", pricing.SourceLiteLLM, pricing.SourceOpenRouter:
		return src, nil
	default:
		return "", fmt.Errorf("unknown pricing source %q", s)
	}
}

func runReport(ctx context.Context, flags *reportFlags, project func(*report.Report) any) error {
	opts, err := flags.options()
	if err != nil {
		return err
	}
	rep, err := report.Generate(ctx, opts)
	if err != nil {
		return err
	}
	return printJSON(project(rep))
}

func fullReport(rep *report.Report) any  { return rep }
func graphExport(rep *report.Report) any { return rep.Graph() }
func modelsOnly(rep *report.Report) any  { return rep.Models }
func monthlyOnly(rep *report.Report) any { return rep.Monthly }

func newReportCommand() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the full usage report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), &flags, fullReport)
		},
	}
	flags.register(cmd)
	return cmd
}

func newGraphCommand() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the contribution-graph export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), &flags, graphExport)
		},
	}
	flags.register(cmd)
	return cmd
}

func newModelsCommand() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Print per-model usage, most expensive first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), &flags, modelsOnly)
		},
	}
	flags.register(cmd)
	return cmd
}

func newMonthlyCommand() *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Print per-month usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), &flags, monthlyOnly)
		},
	}
	flags.register(cmd)
	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}
