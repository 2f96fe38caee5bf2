package parsers

import (
	"context"

	"github.com/tokscale/tokscale/internal/usage"
)

type ampTokenUsage struct {
	Model               string `json:"model"`
	InputTokens         int64  `json:"inputTokens"`
	OutputTokens        int64  `json:"outputTokens"`
	CacheCreationTokens int64  `json:"cacheCreationInputTokens"`
	CacheReadTokens     int64  `json:"cacheReadInputTokens"`
}

type ampThread struct {
	ID       string  `json:"id"`
	Created  float64 `json:"created"`
	Messages []struct {
		Role  string         `json:"role"`
		Model string         `json:"model"`
		Usage *ampTokenUsage `json:"usage"`
		Meta  struct {
			SentAt float64 `json:"sentAt"`
		} `json:"meta"`
	} `json:"messages"`
	UsageLedger struct {
		Events []struct {
			OperationType string         `json:"operationType"`
			Timestamp     float64        `json:"timestamp"`
			Model         string         `json:"model"`
			CreditsUsed   float64        `json:"creditsUsed"`
			TokenUsage    *ampTokenUsage `json:"tokenUsage"`
		} `json:"events"`
	} `json:"usageLedger"`
}

// ampCreditsPerDollar converts ledger credits (hundredths of a cent)
// to dollars.
const ampCreditsPerDollar = 10000

// parseAmp reads thread files. Messages carry usage directly on newer
// threads; older threads only record inference events in the usage
// ledger, which also carries the credits actually charged.
func parseAmp(ctx context.Context, in Input) []usage.Message {
	var out []usage.Message
	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		var thread ampThread
		if err := readJSONFile(f.Path, &thread); err != nil {
			continue
		}
		session := thread.ID
		if session == "" {
			session = fileStem(f.Path)
		}
		fallback := int64(thread.Created)
		if fallback <= 0 {
			fallback = mtimeMS(f.Path)
		}

		emitted := false
		for _, msg := range thread.Messages {
			if msg.Role != "assistant" || msg.Usage == nil {
				continue
			}
			model := msg.Usage.Model
			if model == "" {
				model = msg.Model
			}
			m := usage.Message{
				Client:      "amp",
				ModelID:     model,
				ProviderID:  "amp",
				SessionID:   session,
				TimestampMS: int64(msg.Meta.SentAt),
				Tokens:      ampTokens(msg.Usage),
			}
			m.Finalize(fallback)
			if keepMessage(m) {
				out = append(out, m)
				emitted = true
			}
		}
		if emitted {
			continue
		}

		for _, ev := range thread.UsageLedger.Events {
			if ev.OperationType != "inference" {
				continue
			}
			m := usage.Message{
				Client:      "amp",
				ModelID:     ev.Model,
				ProviderID:  "amp",
				SessionID:   session,
				TimestampMS: int64(ev.Timestamp),
				Tokens:      ampTokens(ev.TokenUsage),
				Cost:        ev.CreditsUsed / ampCreditsPerDollar,
			}
			m.Finalize(fallback)
			if keepMessage(m) {
				out = append(out, m)
			}
		}
	}
	return out
}

func ampTokens(u *ampTokenUsage) usage.TokenCounts {
	if u == nil {
		return usage.TokenCounts{}
	}
	return usage.TokenCounts{
		Input:      u.InputTokens,
		Output:     u.OutputTokens,
		CacheRead:  u.CacheReadTokens,
		CacheWrite: u.CacheCreationTokens,
	}
}
