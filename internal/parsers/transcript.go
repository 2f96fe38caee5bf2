package parsers

import (
	"context"
	"encoding/json"
	"os"

	"github.com/tokscale/tokscale/internal/usage"
)

// transcriptEntry is the agent-session line shape shared by pi and
// openclaw: a session header, model_change markers, then message
// entries. Timestamps appear as RFC3339 strings or epoch numbers.
type transcriptEntry struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp json.RawMessage `json:"timestamp"`
	ModelID   string          `json:"modelId"`
	Provider  string          `json:"provider"`
	Message   *struct {
		Role  string `json:"role"`
		Model string `json:"model"`
		Usage *struct {
			Input      int64 `json:"input"`
			Output     int64 `json:"output"`
			CacheRead  int64 `json:"cacheRead"`
			CacheWrite int64 `json:"cacheWrite"`
		} `json:"usage"`
		Cost *struct {
			Total float64 `json:"total"`
		} `json:"cost"`
	} `json:"message"`
}

func parsePi(ctx context.Context, in Input) []usage.Message {
	return parseTranscripts(ctx, in, "pi")
}

func parseOpenClaw(ctx context.Context, in Input) []usage.Message {
	return parseTranscripts(ctx, in, "openclaw")
}

func parseTranscripts(ctx context.Context, in Input, client string) []usage.Message {
	var out []usage.Message
	for _, f := range in.Files {
		if ctx.Err() != nil {
			break
		}
		out = append(out, parseTranscriptFile(f.Path, client)...)
	}
	return out
}

func parseTranscriptFile(path, client string) []usage.Message {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	fallback := mtimeMS(path)
	session := fileStem(path)
	model := ""
	provider := ""
	var out []usage.Message

	scanner := newLineScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry transcriptEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}

		switch entry.Type {
		case "session":
			if entry.ID != "" {
				session = entry.ID
			}
		case "model_change":
			if entry.ModelID != "" {
				model = entry.ModelID
			}
			if entry.Provider != "" {
				provider = entry.Provider
			}
		case "message":
			msg := entry.Message
			if msg == nil || msg.Role != "assistant" || msg.Usage == nil {
				continue
			}
			entryModel := msg.Model
			if entryModel == "" {
				entryModel = model
			}
			m := usage.Message{
				Client:      client,
				ModelID:     entryModel,
				ProviderID:  provider,
				SessionID:   session,
				TimestampMS: rawTimestampMS(entry.Timestamp),
				Tokens: usage.TokenCounts{
					Input:      msg.Usage.Input,
					Output:     msg.Usage.Output,
					CacheRead:  msg.Usage.CacheRead,
					CacheWrite: msg.Usage.CacheWrite,
				},
			}
			if msg.Cost != nil {
				m.Cost = msg.Cost.Total
			}
			m.Finalize(fallback)
			if keepMessage(m) {
				out = append(out, m)
			}
		}
	}
	return out
}

// rawTimestampMS accepts the two timestamp encodings transcripts use:
// a JSON number (epoch seconds or millis) or a string.
func rawTimestampMS(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		if n <= 0 {
			return 0
		}
		if n > 1e12 { // epoch millis
			return int64(n)
		}
		return int64(n * 1000)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return timestampMS(s)
	}
	return 0
}
