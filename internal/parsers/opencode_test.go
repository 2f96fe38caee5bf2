package parsers

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/tokscale/tokscale/internal/scan"
)

const openCodeFixture = `{
	"id": "msg_1",
	"role": "assistant",
	"sessionID": "ses_1",
	"modelID": "claude-sonnet-4-20250514",
	"providerID": "anthropic",
	"mode": "Build Mode",
	"cost": 0.05,
	"time": {"created": 1718452800000},
	"tokens": {"input": 1000, "output": 500, "reasoning": 0, "cache": {"read": 200, "write": 50}}
}`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseOpenCodeLegacyJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "msg_1.json", openCodeFixture)

	msgs := parseOpenCode(context.Background(), Input{Files: []scan.File{{Path: path}}})
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Client != "opencode" || m.ModelID != "claude-sonnet-4-20250514" || m.ProviderID != "anthropic" {
		t.Errorf("identity = %s/%s/%s", m.Client, m.ModelID, m.ProviderID)
	}
	if m.Tokens.Input != 1000 || m.Tokens.Output != 500 || m.Tokens.CacheRead != 200 || m.Tokens.CacheWrite != 50 {
		t.Errorf("tokens = %+v", m.Tokens)
	}
	if m.Cost != 0.05 {
		t.Errorf("cost = %v, want 0.05", m.Cost)
	}
	if m.Date != "2024-06-15" {
		t.Errorf("date = %s, want 2024-06-15", m.Date)
	}
	if m.Agent != "build-mode" {
		t.Errorf("agent = %q, want build-mode", m.Agent)
	}
}

func TestParseOpenCodeSkipsNonAssistant(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "msg_2.json",
		`{"id":"msg_2","role":"user","tokens":{"input":5},"time":{"created":1718452800000}}`)

	msgs := parseOpenCode(context.Background(), Input{Files: []scan.File{{Path: path}}})
	if len(msgs) != 0 {
		t.Fatalf("messages = %d, want 0", len(msgs))
	}
}

func TestParseOpenCodeDropsZeroUsage(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "msg_3.json",
		`{"id":"msg_3","role":"assistant","modelID":"m","tokens":{"input":0,"output":0},"time":{"created":1718452800000}}`)

	msgs := parseOpenCode(context.Background(), Input{Files: []scan.File{{Path: path}}})
	if len(msgs) != 0 {
		t.Fatalf("messages = %d, want 0", len(msgs))
	}
}

func TestParseOpenCodeDedupsAcrossJSONAndDB(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFixture(t, dir, "msg_1.json", openCodeFixture)

	dbPath := filepath.Join(dir, "opencode.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE message (id TEXT PRIMARY KEY, data TEXT)`); err != nil {
		t.Fatal(err)
	}
	// msg_1 duplicates the legacy file; msg_db is new.
	if _, err := db.Exec(`INSERT INTO message (id, data) VALUES (?, ?)`, "msg_1", openCodeFixture); err != nil {
		t.Fatal(err)
	}
	dbOnly := `{"id":"msg_db","role":"assistant","sessionID":"ses_2","modelID":"gpt-5.1",
		"providerID":"openai","cost":0.01,"time":{"created":1718539200000},
		"tokens":{"input":10,"output":20,"reasoning":0,"cache":{"read":0,"write":0}}}`
	if _, err := db.Exec(`INSERT INTO message (id, data) VALUES (?, ?)`, "msg_db", dbOnly); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	msgs := parseOpenCode(context.Background(), Input{
		Files:      []scan.File{{Path: jsonPath}},
		OpenCodeDB: dbPath,
	})
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2 (dedup by id)", len(msgs))
	}
	ids := map[string]bool{}
	for _, m := range msgs {
		ids[m.SessionID] = true
	}
	if !ids["ses_1"] || !ids["ses_2"] {
		t.Errorf("sessions = %v", ids)
	}
}
