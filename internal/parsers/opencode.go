package parsers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tokscale/tokscale/internal/usage"
)

// openCodeRecord is the message shape OpenCode stores, both as legacy
// per-message JSON files and as the data column of the v1.2+ SQLite
// message table.
type openCodeRecord struct {
	ID         string  `json:"id"`
	Role       string  `json:"role"`
	SessionID  string  `json:"sessionID"`
	ModelID    string  `json:"modelID"`
	ProviderID string  `json:"providerID"`
	Mode       string  `json:"mode"`
	Agent      string  `json:"agent"`
	Cost       float64 `json:"cost"`
	Time       struct {
		Created float64 `json:"created"`
	} `json:"time"`
	Tokens *struct {
		Input     int64 `json:"input"`
		Output    int64 `json:"output"`
		Reasoning int64 `json:"reasoning"`
		Cache     struct {
			Read  int64 `json:"read"`
			Write int64 `json:"write"`
		} `json:"cache"`
	} `json:"tokens"`
}

func parseOpenCode(ctx context.Context, in Input) []usage.Message {
	seen := make(map[string]bool)
	var out []usage.Message

	for _, f := range in.Files {
		var rec openCodeRecord
		if err := readJSONFile(f.Path, &rec); err != nil {
			continue
		}
		id := rec.ID
		if id == "" {
			id = fileStem(f.Path)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if m, ok := openCodeMessage(rec, id, mtimeMS(f.Path)); ok {
			out = append(out, m)
		}
	}

	if in.OpenCodeDB != "" {
		out = append(out, parseOpenCodeDB(ctx, in.OpenCodeDB, seen)...)
	}
	return out
}

func parseOpenCodeDB(ctx context.Context, path string, seen map[string]bool) []usage.Message {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		log.Printf("[parsers] opencode db open: %v", err)
		return nil
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT id, data FROM message WHERE json_extract(data, '$.role') = 'assistant'`)
	if err != nil {
		log.Printf("[parsers] opencode db query: %v", err)
		return nil
	}
	defer rows.Close()

	fallback := mtimeMS(path)
	var out []usage.Message
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		var rec openCodeRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		if rec.ID == "" {
			rec.ID = id
		}
		if m, ok := openCodeMessage(rec, id, fallback); ok {
			out = append(out, m)
		}
	}
	return out
}

func openCodeMessage(rec openCodeRecord, id string, fallbackMS int64) (usage.Message, bool) {
	if rec.Role != "assistant" || rec.Tokens == nil {
		return usage.Message{}, false
	}
	agent := rec.Mode
	if agent == "" {
		agent = rec.Agent
	}
	m := usage.Message{
		Client:      "opencode",
		ModelID:     rec.ModelID,
		ProviderID:  rec.ProviderID,
		SessionID:   rec.SessionID,
		TimestampMS: int64(rec.Time.Created),
		Tokens: usage.TokenCounts{
			Input:      rec.Tokens.Input,
			Output:     rec.Tokens.Output,
			CacheRead:  rec.Tokens.Cache.Read,
			CacheWrite: rec.Tokens.Cache.Write,
			Reasoning:  rec.Tokens.Reasoning,
		},
		Cost:     rec.Cost,
		Agent:    usage.NormalizeAgent(agent),
		DedupKey: id,
	}
	m.Finalize(fallbackMS)
	return m, keepMessage(m)
}
