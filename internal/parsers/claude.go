package parsers

import (
	"context"
	"encoding/json"
	"os"

	"github.com/tokscale/tokscale/internal/usage"
)

type claudeEntry struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId"`
	SessionID string `json:"sessionId"`
	Message   struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Usage *struct {
			InputTokens         int64 `json:"input_tokens"`
			OutputTokens        int64 `json:"output_tokens"`
			CacheCreationTokens int64 `json:"cache_creation_input_tokens"`
			CacheReadTokens     int64 `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// parseClaude reads project transcript JSONL. The same session can be
// materialized under several project directories, so assistant entries
// are deduplicated by (message.id, requestId) across the whole run.
func parseClaude(ctx context.Context, in Input) []usage.Message {
	seen := make(map[string]bool)
	var out []usage.Message

	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		file, err := os.Open(f.Path)
		if err != nil {
			continue
		}
		fallback := mtimeMS(f.Path)
		sessionFallback := fileStem(f.Path)

		scanner := newLineScanner(file)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var entry claudeEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			if entry.Type != "assistant" || entry.Message.Model == "" || entry.Message.Usage == nil {
				continue
			}

			var dedup string
			if entry.Message.ID != "" && entry.RequestID != "" {
				dedup = entry.Message.ID + ":" + entry.RequestID
				if seen[dedup] {
					continue
				}
				seen[dedup] = true
			}

			session := entry.SessionID
			if session == "" {
				session = sessionFallback
			}
			u := entry.Message.Usage
			m := usage.Message{
				Client:      "claude",
				ModelID:     entry.Message.Model,
				ProviderID:  "anthropic",
				SessionID:   session,
				TimestampMS: timestampMS(entry.Timestamp),
				Tokens: usage.TokenCounts{
					Input:      u.InputTokens,
					Output:     u.OutputTokens,
					CacheRead:  u.CacheReadTokens,
					CacheWrite: u.CacheCreationTokens,
				},
				DedupKey: dedup,
			}
			m.Finalize(fallback)
			if keepMessage(m) {
				out = append(out, m)
			}
		}
		file.Close()
	}
	return out
}
