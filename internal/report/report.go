// Package report is the top-level entry point composing the pipeline:
// scan, parse, price, filter, aggregate. Everything below it is
// best-effort; the only errors surfaced here are an undeterminable
// home directory and a pricing service with neither upstream nor
// cache.
package report

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/tokscale/tokscale/internal/clients"
	"github.com/tokscale/tokscale/internal/config"
	"github.com/tokscale/tokscale/internal/parsers"
	"github.com/tokscale/tokscale/internal/pricing"
	"github.com/tokscale/tokscale/internal/scan"
	"github.com/tokscale/tokscale/internal/stats"
)

// Options narrow a report run. Zero values mean everything: all
// enabled clients, all dates, model-only grouping, both catalogs.
type Options struct {
	Clients []string
	Year    string
	Since   string
	Until   string
	GroupBy stats.GroupBy
	Source  pricing.Source
	Offline bool

	// Home overrides the scanned home directory; empty resolves the
	// real one.
	Home string
}

// Report is the full aggregation result.
type Report struct {
	Summary          stats.Summary             `json:"summary"`
	Daily            []stats.DailyContribution `json:"dailyContributions"`
	Models           []stats.ModelUsage        `json:"models"`
	Monthly          []stats.MonthlyUsage      `json:"monthly"`
	Streaks          stats.Streaks             `json:"streaks"`
	ProcessingTimeMS int64                     `json:"processingTimeMs"`
}

// Generate runs the whole pipeline.
func Generate(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	home := opts.Home
	if home == "" {
		h, err := config.Home()
		if err != nil {
			return nil, err
		}
		home = h
	}

	settings := loadSettings(home)

	ids := opts.Clients
	if len(ids) == 0 {
		ids = settings.Enabled(clients.IDs())
	}
	groupBy := opts.GroupBy
	if groupBy == "" {
		groupBy = stats.ParseGroupBy(settings.DefaultGroupBy)
	}

	res := scan.Scan(ctx, home, ids)
	msgs := parsers.ParseAll(ctx, res)

	svc := pricing.Shared(config.CacheDirFor(home))
	svc.Offline = opts.Offline
	if err := svc.Load(ctx); err != nil {
		return nil, fmt.Errorf("initializing pricing: %w", err)
	}
	svc.Annotate(msgs, opts.Source)

	msgs = stats.Dedup(msgs)
	msgs = stats.ApplyFilter(msgs, stats.Filter{
		Year:  opts.Year,
		Since: opts.Since,
		Until: opts.Until,
	})

	daily := stats.Daily(msgs)
	rep := &Report{
		Summary: stats.Summarize(msgs, daily),
		Daily:   daily,
		Models:  stats.Models(msgs, groupBy),
		Monthly: stats.Monthly(msgs),
		Streaks: stats.ComputeStreaks(daily, time.Now()),
	}
	rep.ProcessingTimeMS = time.Since(start).Milliseconds()
	return rep, nil
}

func loadSettings(home string) config.Settings {
	path := filepath.Join(config.DirFor(home), "settings.json")
	settings, err := config.LoadSettingsFrom(path)
	if err != nil {
		log.Printf("[report] settings: %v", err)
		return config.DefaultSettings()
	}
	return settings
}
