package main

import (
	"testing"

	"github.com/tokscale/tokscale/internal/pricing"
	"github.com/tokscale/tokscale/internal/stats"
)

func TestReportFlagsOptions(t *testing.T) {
	f := reportFlags{
		clients: []string{"claude", "codex"},
		year:    "2025",
		groupBy: "client-model",
		source:  "litellm",
		offline: true,
	}
	opts, err := f.options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(opts.Clients) != 2 || opts.Year != "2025" || !opts.Offline {
		t.Errorf("opts = %+v", opts)
	}
	if opts.GroupBy != stats.GroupByClientModel {
		t.Errorf("groupBy = %q", opts.GroupBy)
	}
	if opts.Source != pricing.SourceLiteLLM {
		t.Errorf("source = %q", opts.Source)
	}
}

func TestReportFlagsRejectBadGroupBy(t *testing.T) {
	f := reportFlags{groupBy: "per-model"}
	if _, err := f.options(); err == nil {
		t.Fatal("expected error for unknown group-by")
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    pricing.Source
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "litellm", want: pricing.SourceLiteLLM},
		{in: " OpenRouter ", want: pricing.SourceOpenRouter},
		{in: "cursor", wantErr: true},
		{in: "nope", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseSource(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSource(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSource(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSource(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	want := []string{
		"report", "graph", "models", "monthly", "clients", "pricing",
		"cursor", "auth", "headless", "watch", "version",
	}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
