package parsers

import (
	"context"

	"github.com/tokscale/tokscale/internal/usage"
)

type geminiSession struct {
	SessionID   string `json:"sessionId"`
	LastUpdated string `json:"lastUpdated"`
	Messages    []struct {
		Type      string `json:"type"`
		Model     string `json:"model"`
		Timestamp string `json:"timestamp"`
		Tokens    *struct {
			Input    int64 `json:"input"`
			Output   int64 `json:"output"`
			Cached   int64 `json:"cached"`
			Thoughts int64 `json:"thoughts"`
		} `json:"tokens"`
	} `json:"messages"`
}

func parseGemini(ctx context.Context, in Input) []usage.Message {
	var out []usage.Message
	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		var sess geminiSession
		if err := readJSONFile(f.Path, &sess); err != nil {
			continue
		}
		session := sess.SessionID
		if session == "" {
			session = fileStem(f.Path)
		}
		fallback := timestampMS(sess.LastUpdated)
		if fallback == 0 {
			fallback = mtimeMS(f.Path)
		}

		for _, entry := range sess.Messages {
			if entry.Type != "gemini" || entry.Tokens == nil {
				continue
			}
			m := usage.Message{
				Client:      "gemini",
				ModelID:     entry.Model,
				ProviderID:  "google",
				SessionID:   session,
				TimestampMS: timestampMS(entry.Timestamp),
				Tokens: usage.TokenCounts{
					Input:     entry.Tokens.Input,
					Output:    entry.Tokens.Output,
					CacheRead: entry.Tokens.Cached,
					Reasoning: entry.Tokens.Thoughts,
				},
			}
			m.Finalize(fallback)
			if keepMessage(m) {
				out = append(out, m)
			}
		}
	}
	return out
}
