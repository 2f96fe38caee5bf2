package parsers

import (
	"context"
	"encoding/json"
	"os"

	"github.com/tokscale/tokscale/internal/usage"
)

type codexEvent struct {
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

type codexTokenUsage struct {
	InputTokens           int64 `json:"input_tokens"`
	CachedInputTokens     int64 `json:"cached_input_tokens"`
	OutputTokens          int64 `json:"output_tokens"`
	ReasoningOutputTokens int64 `json:"reasoning_output_tokens"`
	TotalTokens           int64 `json:"total_tokens"`
}

// parseCodex reads rollout event logs. Token counts arrive on
// token_count events; the model in effect comes from the most recent
// turn_context, and the session id from the session_meta header.
func parseCodex(ctx context.Context, in Input) []usage.Message {
	var out []usage.Message
	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		out = append(out, parseCodexFile(f.Path, f.Headless)...)
	}
	return out
}

func parseCodexFile(path string, headless bool) []usage.Message {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	fallback := mtimeMS(path)
	session := fileStem(path)
	model := ""
	var prevTotal *codexTokenUsage
	var out []usage.Message

	scanner := newLineScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev codexEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "session_meta":
			var meta struct {
				ID string `json:"id"`
			}
			if json.Unmarshal(ev.Payload, &meta) == nil && meta.ID != "" {
				session = meta.ID
			}
		case "turn_context":
			var tc struct {
				Model string `json:"model"`
			}
			if json.Unmarshal(ev.Payload, &tc) == nil && tc.Model != "" {
				model = tc.Model
			}
		case "event_msg":
			var msg struct {
				Type string `json:"type"`
				Info *struct {
					TotalTokenUsage *codexTokenUsage `json:"total_token_usage"`
					LastTokenUsage  *codexTokenUsage `json:"last_token_usage"`
				} `json:"info"`
			}
			if json.Unmarshal(ev.Payload, &msg) != nil || msg.Type != "token_count" || msg.Info == nil {
				continue
			}
			turn := msg.Info.LastTokenUsage
			if turn == nil && msg.Info.TotalTokenUsage != nil {
				turn = deltaCodexUsage(prevTotal, msg.Info.TotalTokenUsage)
			}
			if msg.Info.TotalTokenUsage != nil {
				cp := *msg.Info.TotalTokenUsage
				prevTotal = &cp
			}
			if turn == nil {
				continue
			}

			agent := ""
			if headless {
				agent = "headless"
			}
			m := usage.Message{
				Client:      "codex",
				ModelID:     model,
				ProviderID:  "openai",
				SessionID:   session,
				TimestampMS: timestampMS(ev.Timestamp),
				Tokens: usage.TokenCounts{
					Input:     turn.InputTokens,
					Output:    turn.OutputTokens,
					Reasoning: turn.ReasoningOutputTokens,
				},
				Agent: agent,
			}
			m.Finalize(fallback)
			if keepMessage(m) {
				out = append(out, m)
			}
		}
	}
	return out
}

// deltaCodexUsage derives one turn's usage from consecutive cumulative
// counters; a counter reset yields zero, never negative.
func deltaCodexUsage(prev, cur *codexTokenUsage) *codexTokenUsage {
	if cur == nil {
		return nil
	}
	if prev == nil {
		cp := *cur
		return &cp
	}
	floor := func(a, b int64) int64 {
		if d := a - b; d > 0 {
			return d
		}
		return 0
	}
	return &codexTokenUsage{
		InputTokens:           floor(cur.InputTokens, prev.InputTokens),
		CachedInputTokens:     floor(cur.CachedInputTokens, prev.CachedInputTokens),
		OutputTokens:          floor(cur.OutputTokens, prev.OutputTokens),
		ReasoningOutputTokens: floor(cur.ReasoningOutputTokens, prev.ReasoningOutputTokens),
		TotalTokens:           floor(cur.TotalTokens, prev.TotalTokens),
	}
}
