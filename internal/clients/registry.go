// Package clients holds the static registry of supported AI coding
// tools: where each one keeps its session data on disk and what the
// pipeline is allowed to do with it. The scanner and parsers resolve
// every path through this table.
package clients

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tokscale/tokscale/internal/config"
)

// Client ids. The set is closed; scanner tasks, parsers and report
// grouping are all keyed by these values.
const (
	OpenCode = "opencode"
	Claude   = "claude"
	Codex    = "codex"
	Cursor   = "cursor"
	Gemini   = "gemini"
	Amp      = "amp"
	Droid    = "droid"
	OpenClaw = "openclaw"
	Pi       = "pi"
	Kimi     = "kimi"
	Qwen     = "qwen"
)

// RootKind selects how a client's base directory is resolved.
type RootKind int

const (
	// RootHome resolves to the home directory itself.
	RootHome RootKind = iota
	// RootXDGData resolves to $XDG_DATA_HOME, else ~/.local/share.
	RootXDGData
	// RootEnvDir resolves to $EnvVar, else home/FallbackRel.
	RootEnvDir
	// RootConfig resolves to tokscale's own config directory.
	RootConfig
)

// RootRule resolves the base directory a client writes under.
type RootRule struct {
	Kind        RootKind
	EnvVar      string
	FallbackRel string
}

func (r RootRule) Resolve(home string) string {
	switch r.Kind {
	case RootXDGData:
		if v := os.Getenv("XDG_DATA_HOME"); v != "" {
			return v
		}
		return filepath.Join(home, ".local", "share")
	case RootEnvDir:
		if v := os.Getenv(r.EnvVar); v != "" {
			return v
		}
		return filepath.Join(home, r.FallbackRel)
	case RootConfig:
		return config.DirFor(home)
	default:
		return home
	}
}

// Definition is one registry entry.
type Definition struct {
	ID          string
	DisplayName string
	Root        RootRule
	Rel         string
	Glob        string

	// Match rejects files the glob alone cannot; nil accepts every
	// glob match. It receives the absolute path.
	Match func(path string) bool

	// ExtraRels are additional relative paths under the same root,
	// scanned for archived or legacy layouts.
	ExtraRels []string

	// LegacyRoots are complete alternative roots (relative to home)
	// left behind by earlier releases of the tool.
	LegacyRoots []string

	// Headless marks clients whose stdout capture files land under the
	// headless roots and are parsed with the same decoder.
	Headless bool

	// ParseLocal is false when session data arrives via remote sync
	// (Cursor) instead of the client's own files.
	ParseLocal bool
}

// ResolvePath combines the root rule with the relative path.
func (d Definition) ResolvePath(home string) string {
	return filepath.Join(d.Root.Resolve(home), d.Rel)
}

// ExtraPaths resolves ExtraRels under the client's root.
func (d Definition) ExtraPaths(home string) []string {
	if len(d.ExtraRels) == 0 {
		return nil
	}
	root := d.Root.Resolve(home)
	out := make([]string, 0, len(d.ExtraRels))
	for _, rel := range d.ExtraRels {
		out = append(out, filepath.Join(root, rel))
	}
	return out
}

// LegacyPaths resolves LegacyRoots against home.
func (d Definition) LegacyPaths(home string) []string {
	if len(d.LegacyRoots) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.LegacyRoots))
	for _, rel := range d.LegacyRoots {
		out = append(out, filepath.Join(home, rel))
	}
	return out
}

var registry = []Definition{
	{
		ID:          OpenCode,
		DisplayName: "OpenCode",
		Root:        RootRule{Kind: RootXDGData},
		Rel:         filepath.Join("opencode", "storage", "message"),
		Glob:        "*.json",
		ParseLocal:  true,
	},
	{
		ID:          Claude,
		DisplayName: "Claude Code",
		Root:        RootRule{Kind: RootEnvDir, EnvVar: "CLAUDE_CONFIG_DIR", FallbackRel: ".claude"},
		Rel:         "projects",
		Glob:        "*.jsonl",
		ParseLocal:  true,
	},
	{
		ID:          Codex,
		DisplayName: "Codex",
		Root:        RootRule{Kind: RootEnvDir, EnvVar: "CODEX_HOME", FallbackRel: ".codex"},
		Rel:         "sessions",
		Glob:        "*.jsonl",
		ExtraRels:   []string{"archived_sessions"},
		Headless:    true,
		ParseLocal:  true,
	},
	{
		ID:          Cursor,
		DisplayName: "Cursor",
		Root:        RootRule{Kind: RootConfig},
		Rel:         "cursor-cache",
		Glob:        "usage*.csv",
		Match:       MatchCursorCache,
		ParseLocal:  false,
	},
	{
		ID:          Gemini,
		DisplayName: "Gemini CLI",
		Root:        RootRule{Kind: RootHome},
		Rel:         filepath.Join(".gemini", "tmp"),
		Glob:        "session-*.json",
		Match:       matchGeminiChat,
		ParseLocal:  true,
	},
	{
		ID:          Amp,
		DisplayName: "Amp",
		Root:        RootRule{Kind: RootXDGData},
		Rel:         filepath.Join("amp", "threads"),
		Glob:        "*.json",
		ParseLocal:  true,
	},
	{
		ID:          Droid,
		DisplayName: "Droid",
		Root:        RootRule{Kind: RootHome},
		Rel:         filepath.Join(".factory", "sessions"),
		Glob:        "*.settings.json",
		ParseLocal:  true,
	},
	{
		ID:          OpenClaw,
		DisplayName: "OpenClaw",
		Root:        RootRule{Kind: RootHome},
		Rel:         filepath.Join(".openclaw", "agents"),
		Glob:        "*.jsonl",
		LegacyRoots: []string{
			filepath.Join(".clawd", "agents"),
			filepath.Join(".clawdbot", "agents"),
			filepath.Join(".moltbot", "agents"),
		},
		ParseLocal: true,
	},
	{
		ID:          Pi,
		DisplayName: "Pi",
		Root:        RootRule{Kind: RootHome},
		Rel:         filepath.Join(".pi", "agent", "sessions"),
		Glob:        "*.jsonl",
		ParseLocal:  true,
	},
	{
		ID:          Kimi,
		DisplayName: "Kimi CLI",
		Root:        RootRule{Kind: RootEnvDir, EnvVar: "KIMI_HOME", FallbackRel: ".kimi"},
		Rel:         "sessions",
		Glob:        "wire.jsonl",
		ParseLocal:  true,
	},
	{
		ID:          Qwen,
		DisplayName: "Qwen Code",
		Root:        RootRule{Kind: RootHome},
		Rel:         filepath.Join(".qwen", "projects"),
		Glob:        "*.jsonl",
		ParseLocal:  true,
	},
}

// All returns every registry entry in declaration order.
func All() []Definition {
	return registry
}

// IDs returns every client id in declaration order.
func IDs() []string {
	out := make([]string, len(registry))
	for i, d := range registry {
		out[i] = d.ID
	}
	return out
}

// ByID returns the definition for a client id.
func ByID(id string) (Definition, bool) {
	for _, d := range registry {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// OpenCodeDBPath is the v1.2+ message database the scanner reports
// alongside the legacy JSON tree.
func OpenCodeDBPath(home string) string {
	def, _ := ByID(OpenCode)
	return filepath.Join(def.Root.Resolve(home), "opencode", "opencode.db")
}

// MatchCursorCache accepts usage.csv and usage.<account>.csv, rejecting
// anything under an archive/ component and usage.backup*.csv files.
func MatchCursorCache(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "archive" {
			return false
		}
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "usage") || !strings.HasSuffix(name, ".csv") {
		return false
	}
	if strings.HasPrefix(name, "usage.backup") {
		return false
	}
	return name == "usage.csv" || strings.HasPrefix(name, "usage.")
}

// matchGeminiChat keeps only chat session files: Gemini writes other
// session-*.json artifacts outside chats/ directories.
func matchGeminiChat(path string) bool {
	return strings.Contains(filepath.ToSlash(path), "/chats/")
}
