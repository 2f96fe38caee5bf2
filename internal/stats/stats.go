// Package stats folds unified messages into the derived report shapes:
// daily contributions, model usage entries, monthly rollups, streaks,
// and summary totals. Aggregation never fails; empty input produces
// empty, well-formed output.
package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/tokscale/tokscale/internal/usage"
)

// Totals is the cost/token/message triple shared by the daily and
// monthly shapes.
type Totals struct {
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
	Messages int64   `json:"messages"`
}

// Summary holds whole-result totals; per-class token sums equal the
// sums over every entry in every view.
type Summary struct {
	TotalTokens    int64             `json:"totalTokens"`
	TotalCost      float64           `json:"totalCost"`
	TotalMessages  int64             `json:"totalMessages"`
	TokenBreakdown usage.TokenCounts `json:"tokenBreakdown"`
	Days           int               `json:"days"`
	Clients        []string          `json:"clients"`
}

// Filter restricts messages by date before aggregation. Year matches
// the YYYY prefix; Since/Until are inclusive ISO dates, compared
// lexically.
type Filter struct {
	Year  string
	Since string
	Until string
}

func (f Filter) empty() bool {
	return f.Year == "" && f.Since == "" && f.Until == ""
}

func (f Filter) keep(date string) bool {
	if f.Year != "" && (len(date) < 4 || date[:4] != f.Year) {
		return false
	}
	if f.Since != "" && date < f.Since {
		return false
	}
	if f.Until != "" && date > f.Until {
		return false
	}
	return true
}

// ApplyFilter returns the messages whose date passes f.
func ApplyFilter(msgs []usage.Message, f Filter) []usage.Message {
	if f.empty() {
		return msgs
	}
	return lo.Filter(msgs, func(m usage.Message, _ int) bool {
		return f.keep(m.Date)
	})
}

// Dedup drops all but the first message for each (client, dedup key)
// pair. Messages without a key always count.
func Dedup(msgs []usage.Message) []usage.Message {
	seen := make(map[string]bool, len(msgs))
	return lo.Filter(msgs, func(m usage.Message, _ int) bool {
		if m.DedupKey == "" {
			return true
		}
		key := m.Client + "\x00" + m.DedupKey
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
}

// Summarize computes whole-set totals.
func Summarize(msgs []usage.Message, days []DailyContribution) Summary {
	var s Summary
	clients := make(map[string]bool)
	for _, m := range msgs {
		s.TokenBreakdown.Add(m.Tokens)
		s.TotalCost += m.Cost
		s.TotalMessages++
		clients[m.Client] = true
	}
	s.TotalTokens = s.TokenBreakdown.Total()
	s.TotalCost = usage.SanitizeCost(s.TotalCost)
	s.Days = len(days)
	s.Clients = lo.Keys(clients)
	sort.Strings(s.Clients)
	return s
}
