package parsers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tokscale/tokscale/internal/usage"
)

const kimiDefaultModel = "kimi-for-coding"

type kimiTokenUsage struct {
	InputOther         int64 `json:"input_other"`
	Output             int64 `json:"output"`
	InputCacheRead     int64 `json:"input_cache_read"`
	InputCacheCreation int64 `json:"input_cache_creation"`
}

type kimiWireLine struct {
	Timestamp float64 `json:"timestamp"` // float seconds
	Message   *struct {
		Type    string `json:"type"`
		Payload *struct {
			TokenUsage *kimiTokenUsage `json:"token_usage"`
		} `json:"payload"`
	} `json:"message"`
}

// parseKimi reads wire logs. StatusUpdate token counters are cumulative
// over the session, so each line contributes its delta against the
// previous one.
func parseKimi(ctx context.Context, in Input) []usage.Message {
	var out []usage.Message
	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		out = append(out, parseKimiFile(f.Path)...)
	}
	return out
}

func parseKimiFile(path string) []usage.Message {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	dir := filepath.Dir(path)
	session := filepath.Base(dir)
	model := kimiSessionModel(dir)
	fallback := mtimeMS(path)

	var prev kimiTokenUsage
	var out []usage.Message

	scanner := newLineScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var wire kimiWireLine
		if err := json.Unmarshal(line, &wire); err != nil {
			continue
		}
		if wire.Message == nil || wire.Message.Type != "StatusUpdate" ||
			wire.Message.Payload == nil || wire.Message.Payload.TokenUsage == nil {
			continue
		}
		cur := *wire.Message.Payload.TokenUsage

		floor := func(a, b int64) int64 {
			if d := a - b; d > 0 {
				return d
			}
			return 0
		}
		m := usage.Message{
			Client:      "kimi",
			ModelID:     model,
			ProviderID:  "moonshot",
			SessionID:   session,
			TimestampMS: int64(wire.Timestamp * 1000),
			Tokens: usage.TokenCounts{
				Input:      floor(cur.InputOther, prev.InputOther),
				Output:     floor(cur.Output, prev.Output),
				CacheRead:  floor(cur.InputCacheRead, prev.InputCacheRead),
				CacheWrite: floor(cur.InputCacheCreation, prev.InputCacheCreation),
			},
		}
		prev = cur

		m.Finalize(fallback)
		if keepMessage(m) {
			out = append(out, m)
		}
	}
	return out
}

// kimiSessionModel reads the session's config.json; kimi does not write
// the model on wire lines.
func kimiSessionModel(dir string) string {
	var cfg struct {
		Model string `json:"model"`
	}
	if err := readJSONFile(filepath.Join(dir, "config.json"), &cfg); err != nil || cfg.Model == "" {
		return kimiDefaultModel
	}
	return cfg.Model
}
