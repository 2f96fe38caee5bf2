package parsers

import (
	"context"
	"strings"
	"time"

	"github.com/tokscale/tokscale/internal/usage"
)

type droidUsage struct {
	InputTokens         int64 `json:"inputTokens"`
	OutputTokens        int64 `json:"outputTokens"`
	CacheReadTokens     int64 `json:"cacheReadTokens"`
	CacheCreationTokens int64 `json:"cacheCreationTokens"`
	ThinkingTokens      int64 `json:"thinkingTokens"`
}

type droidSettings struct {
	Model      string      `json:"model"`
	UpdatedAt  string      `json:"updatedAt"`
	Usage      *droidUsage `json:"usage"`
	TokenUsage *droidUsage `json:"tokenUsage"`
}

// parseDroid reads per-session settings files, one cumulative usage
// record each.
func parseDroid(ctx context.Context, in Input) []usage.Message {
	var out []usage.Message
	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		var s droidSettings
		if err := readJSONFile(f.Path, &s); err != nil {
			continue
		}
		u := s.Usage
		if u == nil {
			u = s.TokenUsage
		}
		if u == nil {
			continue
		}

		ts := timestampMS(s.UpdatedAt)
		if ts == 0 {
			ts = time.Now().UnixMilli()
		}
		m := usage.Message{
			Client:      "droid",
			ModelID:     s.Model,
			ProviderID:  "factory",
			SessionID:   strings.TrimSuffix(fileStem(f.Path), ".settings"),
			TimestampMS: ts,
			Tokens: usage.TokenCounts{
				Input:      u.InputTokens,
				Output:     u.OutputTokens,
				CacheRead:  u.CacheReadTokens,
				CacheWrite: u.CacheCreationTokens,
				Reasoning:  u.ThinkingTokens,
			},
		}
		m.Finalize(mtimeMS(f.Path))
		if keepMessage(m) {
			out = append(out, m)
		}
	}
	return out
}
