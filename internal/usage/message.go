// Package usage defines the unified message record every session parser
// produces, plus the token and cost arithmetic shared by the aggregators.
package usage

import (
	"math"
	"time"
)

// TokenCounts breaks one message's tokens into the five classes the
// pricing formula distinguishes. All fields are non-negative.
type TokenCounts struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	CacheRead  int64 `json:"cacheRead"`
	CacheWrite int64 `json:"cacheWrite"`
	Reasoning  int64 `json:"reasoning"`
}

// Total sums all five token classes.
func (t TokenCounts) Total() int64 {
	return t.Input + t.Output + t.CacheRead + t.CacheWrite + t.Reasoning
}

func (t TokenCounts) IsZero() bool {
	return t.Total() == 0
}

func (t *TokenCounts) Add(o TokenCounts) {
	t.Input += o.Input
	t.Output += o.Output
	t.CacheRead += o.CacheRead
	t.CacheWrite += o.CacheWrite
	t.Reasoning += o.Reasoning
}

// Clamped returns a copy with negative counts raised to zero.
func (t TokenCounts) Clamped() TokenCounts {
	return TokenCounts{
		Input:      ClampCount(t.Input),
		Output:     ClampCount(t.Output),
		CacheRead:  ClampCount(t.CacheRead),
		CacheWrite: ClampCount(t.CacheWrite),
		Reasoning:  ClampCount(t.Reasoning),
	}
}

// Message is the record all parsers emit. Model and provider ids are kept
// exactly as stored on disk; Date is always the UTC date of TimestampMS.
type Message struct {
	Client      string      `json:"client"`
	ModelID     string      `json:"modelId"`
	ProviderID  string      `json:"providerId,omitempty"`
	SessionID   string      `json:"sessionId,omitempty"`
	TimestampMS int64       `json:"timestampMs"`
	Date        string      `json:"date"`
	Tokens      TokenCounts `json:"tokens"`
	Cost        float64     `json:"cost"`
	Agent       string      `json:"agent,omitempty"`

	// DedupKey suppresses duplicates within one client's scan; empty
	// means the message is always counted.
	DedupKey string `json:"-"`
}

// Finalize applies the shared parser discipline: clamp tokens, sanitize
// cost, fall back to fallbackMS (typically file mtime) when the timestamp
// is unknown, and derive the UTC date.
func (m *Message) Finalize(fallbackMS int64) {
	m.Tokens = m.Tokens.Clamped()
	m.Cost = SanitizeCost(m.Cost)
	if m.TimestampMS <= 0 {
		m.TimestampMS = fallbackMS
	}
	if m.TimestampMS < 0 {
		m.TimestampMS = 0
	}
	m.Date = DateOf(m.TimestampMS)
}

// ClampCount raises negative token counts to zero.
func ClampCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// SanitizeCost maps non-finite or negative cost values to zero.
func SanitizeCost(c float64) float64 {
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return 0
	}
	return c
}

// DateOf derives the ISO YYYY-MM-DD date of an epoch-milliseconds
// timestamp in UTC.
func DateOf(tsMS int64) string {
	return time.UnixMilli(tsMS).UTC().Format("2006-01-02")
}
