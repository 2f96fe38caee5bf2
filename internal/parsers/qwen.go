package parsers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tokscale/tokscale/internal/usage"
)

type qwenEntry struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Message   struct {
		Model         string `json:"model"`
		UsageMetadata *struct {
			PromptTokenCount        int64 `json:"promptTokenCount"`
			CandidatesTokenCount    int64 `json:"candidatesTokenCount"`
			CachedContentTokenCount int64 `json:"cachedContentTokenCount"`
			ThoughtsTokenCount      int64 `json:"thoughtsTokenCount"`
		} `json:"usageMetadata"`
	} `json:"message"`
}

func parseQwen(ctx context.Context, in Input) []usage.Message {
	var out []usage.Message
	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		out = append(out, parseQwenFile(f.Path)...)
	}
	return out
}

func parseQwenFile(path string) []usage.Message {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	fallback := mtimeMS(path)
	// sessions live at projects/<project>/chats/<file>.jsonl
	project := filepath.Base(filepath.Dir(path))
	if project == "chats" {
		project = filepath.Base(filepath.Dir(filepath.Dir(path)))
	}
	sessionFallback := project + "-" + fileStem(path)
	var out []usage.Message

	scanner := newLineScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry qwenEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != "assistant" || entry.Message.UsageMetadata == nil {
			continue
		}
		session := entry.SessionID
		if session == "" {
			session = sessionFallback
		}
		u := entry.Message.UsageMetadata
		m := usage.Message{
			Client:      "qwen",
			ModelID:     entry.Message.Model,
			ProviderID:  "qwen",
			SessionID:   session,
			TimestampMS: timestampMS(entry.Timestamp),
			Tokens: usage.TokenCounts{
				Input:     u.PromptTokenCount,
				Output:    u.CandidatesTokenCount,
				CacheRead: u.CachedContentTokenCount,
				Reasoning: u.ThoughtsTokenCount,
			},
		}
		m.Finalize(fallback)
		if keepMessage(m) {
			out = append(out, m)
		}
	}
	return out
}
