package stats

import (
	"runtime"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/tokscale/tokscale/internal/usage"
)

// SourceContribution is one (client, model, provider) slice of a day.
type SourceContribution struct {
	Client   string            `json:"client"`
	Model    string            `json:"model"`
	Provider string            `json:"provider,omitempty"`
	Tokens   usage.TokenCounts `json:"tokens"`
	Cost     float64           `json:"cost"`
	Messages int64             `json:"messages"`
}

// DailyContribution is one calendar day of usage across all clients.
type DailyContribution struct {
	Date           string               `json:"date"`
	Totals         Totals               `json:"totals"`
	TokenBreakdown usage.TokenCounts    `json:"tokenBreakdown"`
	Intensity      int                  `json:"intensity"`
	Sources        []SourceContribution `json:"sources"`
}

type sourceKey struct {
	client, model, provider string
}

type dayAccum struct {
	tokens   usage.TokenCounts
	cost     float64
	messages int64
	sources  map[sourceKey]*SourceContribution
}

func newDayAccum() *dayAccum {
	return &dayAccum{sources: make(map[sourceKey]*SourceContribution)}
}

func (d *dayAccum) add(m usage.Message) {
	d.tokens.Add(m.Tokens)
	d.cost += m.Cost
	d.messages++

	key := sourceKey{client: m.Client, model: m.ModelID, provider: m.ProviderID}
	src, ok := d.sources[key]
	if !ok {
		src = &SourceContribution{Client: key.client, Model: key.model, Provider: key.provider}
		d.sources[key] = src
	}
	src.Tokens.Add(m.Tokens)
	src.Cost += m.Cost
	src.Messages++
}

func (d *dayAccum) merge(o *dayAccum) {
	d.tokens.Add(o.tokens)
	d.cost += o.cost
	d.messages += o.messages
	for key, src := range o.sources {
		dst, ok := d.sources[key]
		if !ok {
			cp := *src
			d.sources[key] = &cp
			continue
		}
		dst.Tokens.Add(src.Tokens)
		dst.Cost += src.Cost
		dst.Messages += src.Messages
	}
}

// Daily folds messages into per-date contributions, in parallel
// shared-nothing partitions reduced after the join. Days come back in
// ascending date order with intensity already bucketed.
func Daily(msgs []usage.Message) []DailyContribution {
	if len(msgs) == 0 {
		return nil
	}

	shards := runtime.NumCPU()
	if shards > len(msgs) {
		shards = len(msgs)
	}
	chunks := lo.Chunk(msgs, (len(msgs)+shards-1)/shards)

	partials := make([]map[string]*dayAccum, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []usage.Message) {
			defer wg.Done()
			part := make(map[string]*dayAccum)
			for _, m := range chunk {
				acc, ok := part[m.Date]
				if !ok {
					acc = newDayAccum()
					part[m.Date] = acc
				}
				acc.add(m)
			}
			partials[i] = part
		}(i, chunk)
	}
	wg.Wait()

	merged := make(map[string]*dayAccum)
	for _, part := range partials {
		for date, acc := range part {
			if dst, ok := merged[date]; ok {
				dst.merge(acc)
			} else {
				merged[date] = acc
			}
		}
	}

	dates := lo.Keys(merged)
	sort.Strings(dates)

	maxCost := 0.0
	for _, acc := range merged {
		if acc.cost > maxCost {
			maxCost = acc.cost
		}
	}

	out := make([]DailyContribution, 0, len(dates))
	for _, date := range dates {
		acc := merged[date]
		sources := make([]SourceContribution, 0, len(acc.sources))
		for _, src := range acc.sources {
			sources = append(sources, *src)
		}
		sort.Slice(sources, func(i, j int) bool {
			if sources[i].Cost != sources[j].Cost {
				return sources[i].Cost > sources[j].Cost
			}
			a, b := sources[i], sources[j]
			if a.Client != b.Client {
				return a.Client < b.Client
			}
			if a.Model != b.Model {
				return a.Model < b.Model
			}
			return a.Provider < b.Provider
		})

		out = append(out, DailyContribution{
			Date: date,
			Totals: Totals{
				Tokens:   acc.tokens.Total(),
				Cost:     usage.SanitizeCost(acc.cost),
				Messages: acc.messages,
			},
			TokenBreakdown: acc.tokens,
			Intensity:      intensity(acc.cost, maxCost),
			Sources:        sources,
		})
	}
	return out
}

// intensity buckets a day's cost against the busiest day into 0-4
// quartiles; a costless day is always 0.
func intensity(cost, maxCost float64) int {
	if cost == 0 || maxCost == 0 {
		return 0
	}
	switch ratio := cost / maxCost; {
	case ratio < 0.25:
		return 1
	case ratio < 0.5:
		return 2
	case ratio < 0.75:
		return 3
	default:
		return 4
	}
}
