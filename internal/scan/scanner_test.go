package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanMatchesGlobOnly(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CLAUDE_CONFIG_DIR", "")

	writeFile(t, filepath.Join(home, ".claude", "projects", "p1", "a.jsonl"))
	writeFile(t, filepath.Join(home, ".claude", "projects", "p1", "notes.txt"))
	writeFile(t, filepath.Join(home, ".claude", "projects", "p2", "nested", "b.jsonl"))

	res := Scan(context.Background(), home, []string{"claude"})
	if got := len(res.Files["claude"]); got != 2 {
		t.Fatalf("claude files = %d, want 2: %v", got, res.Files["claude"])
	}
	for _, f := range res.Files["claude"] {
		if f.Headless {
			t.Errorf("%s tagged headless, want false", f.Path)
		}
	}
}

func TestScanMissingRootsAreSilent(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("CLAUDE_CONFIG_DIR", "")
	t.Setenv("CODEX_HOME", "")
	t.Setenv("KIMI_HOME", "")
	t.Setenv("TOKSCALE_HEADLESS_DIR", filepath.Join(home, "none"))

	ids := []string{"opencode", "claude", "codex", "gemini", "amp", "droid", "openclaw", "pi", "kimi", "qwen"}
	res := Scan(context.Background(), home, ids)
	for _, id := range ids {
		files, ok := res.Files[id]
		if !ok {
			t.Errorf("result missing key for %s", id)
		}
		if len(files) != 0 {
			t.Errorf("%s files = %v, want none", id, files)
		}
	}
	if res.OpenCodeDB != "" {
		t.Errorf("OpenCodeDB = %q, want empty", res.OpenCodeDB)
	}
}

func TestScanCursorCacheFiltering(t *testing.T) {
	home := t.TempDir()
	cache := filepath.Join(home, ".config", "tokscale", "cursor-cache")

	writeFile(t, filepath.Join(cache, "usage.csv"))
	writeFile(t, filepath.Join(cache, "usage.user_abc.csv"))
	writeFile(t, filepath.Join(cache, "usage.backup-20250101.csv"))
	writeFile(t, filepath.Join(cache, "archive", "usage.old.csv"))

	res := Scan(context.Background(), home, []string{"cursor"})
	if got := len(res.Files["cursor"]); got != 2 {
		t.Fatalf("cursor files = %d, want 2: %v", got, res.Files["cursor"])
	}
	for _, f := range res.Files["cursor"] {
		if filepath.Base(filepath.Dir(f.Path)) == "archive" {
			t.Errorf("archive file leaked: %s", f.Path)
		}
	}
}

func TestScanCodexExtraAndHeadlessRoots(t *testing.T) {
	home := t.TempDir()
	capture := t.TempDir()
	t.Setenv("CODEX_HOME", "")
	t.Setenv("TOKSCALE_HEADLESS_DIR", capture)

	writeFile(t, filepath.Join(home, ".codex", "sessions", "2025", "rollout-1.jsonl"))
	writeFile(t, filepath.Join(home, ".codex", "archived_sessions", "rollout-0.jsonl"))
	writeFile(t, filepath.Join(capture, "codex", "sessions", "1736000000000.jsonl"))

	res := Scan(context.Background(), home, []string{"codex"})
	if got := len(res.Files["codex"]); got != 3 {
		t.Fatalf("codex files = %d, want 3: %v", got, res.Files["codex"])
	}
	var headless int
	for _, f := range res.Files["codex"] {
		if f.Headless {
			headless++
		}
	}
	if headless != 1 {
		t.Errorf("headless files = %d, want 1", headless)
	}
}

func TestScanLegacyRoots(t *testing.T) {
	home := t.TempDir()

	writeFile(t, filepath.Join(home, ".clawdbot", "agents", "main", "sessions", "s1.jsonl"))

	res := Scan(context.Background(), home, []string{"openclaw"})
	if got := len(res.Files["openclaw"]); got != 1 {
		t.Fatalf("openclaw files = %d, want 1: %v", got, res.Files["openclaw"])
	}
}

func TestScanReportsOpenCodeDB(t *testing.T) {
	home := t.TempDir()
	xdg := filepath.Join(home, ".local", "share")
	t.Setenv("XDG_DATA_HOME", xdg)

	writeFile(t, filepath.Join(xdg, "opencode", "opencode.db"))
	writeFile(t, filepath.Join(xdg, "opencode", "storage", "message", "ses_1", "msg_1.json"))

	res := Scan(context.Background(), home, []string{"opencode"})
	if res.OpenCodeDB == "" {
		t.Fatal("OpenCodeDB not reported")
	}
	if got := len(res.Files["opencode"]); got != 1 {
		t.Fatalf("opencode files = %d, want 1: %v", got, res.Files["opencode"])
	}
}

func TestScanGeminiRequiresChatsDir(t *testing.T) {
	home := t.TempDir()

	writeFile(t, filepath.Join(home, ".gemini", "tmp", "hash1", "chats", "session-2025-01-01.json"))
	writeFile(t, filepath.Join(home, ".gemini", "tmp", "hash1", "session-stray.json"))

	res := Scan(context.Background(), home, []string{"gemini"})
	if got := len(res.Files["gemini"]); got != 1 {
		t.Fatalf("gemini files = %d, want 1: %v", got, res.Files["gemini"])
	}
}

func TestHeadlessRoots(t *testing.T) {
	home := t.TempDir()

	t.Setenv("TOKSCALE_HEADLESS_DIR", "/custom/capture")
	roots := HeadlessRoots(home)
	if len(roots) != 1 || roots[0] != "/custom/capture" {
		t.Fatalf("override roots = %v", roots)
	}

	t.Setenv("TOKSCALE_HEADLESS_DIR", "")
	roots = HeadlessRoots(home)
	if len(roots) != 2 {
		t.Fatalf("default roots = %v, want 2", roots)
	}
	if roots[0] != filepath.Join(home, ".config", "tokscale", "headless") {
		t.Errorf("roots[0] = %s", roots[0])
	}
}
