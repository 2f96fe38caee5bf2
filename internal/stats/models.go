package stats

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/tokscale/tokscale/internal/usage"
)

// GroupBy selects the model report key.
type GroupBy string

const (
	GroupByModel               GroupBy = "model"
	GroupByClientModel         GroupBy = "client-model"
	GroupByClientProviderModel GroupBy = "client-provider-model"
)

// ParseGroupBy maps user input onto a grouping mode, defaulting to
// model-only.
func ParseGroupBy(s string) GroupBy {
	switch GroupBy(strings.ToLower(strings.TrimSpace(s))) {
	case GroupByClientModel:
		return GroupByClientModel
	case GroupByClientProviderModel:
		return GroupByClientProviderModel
	default:
		return GroupByModel
	}
}

// ModelUsage is one model report row. Client is set for the
// client-scoped groupings; Source carries the comma-joined client list
// when grouping by model only.
type ModelUsage struct {
	Model       string            `json:"model"`
	Provider    string            `json:"provider,omitempty"`
	Client      string            `json:"client,omitempty"`
	Source      string            `json:"source,omitempty"`
	Tokens      usage.TokenCounts `json:"tokens"`
	TotalTokens int64             `json:"totalTokens"`
	Cost        float64           `json:"cost"`
	Messages    int64             `json:"messages"`
}

type modelAccum struct {
	model     string
	provider  string
	client    string
	tokens    usage.TokenCounts
	cost      float64
	messages  int64
	clients   []string // first-seen order
	providers []string
}

// Models folds messages into the model report for the chosen grouping.
// Entries come back sorted by cost descending, ties by (model,
// provider, client) ascending.
func Models(msgs []usage.Message, groupBy GroupBy) []ModelUsage {
	accums := make(map[string]*modelAccum)
	var order []string

	for _, m := range msgs {
		var key string
		switch groupBy {
		case GroupByClientModel:
			key = m.Client + "\x00" + m.ModelID
		case GroupByClientProviderModel:
			key = m.Client + "\x00" + m.ProviderID + "\x00" + m.ModelID
		default:
			key = m.ModelID
		}

		acc, ok := accums[key]
		if !ok {
			acc = &modelAccum{model: m.ModelID, provider: m.ProviderID, client: m.Client}
			accums[key] = acc
			order = append(order, key)
		}
		acc.tokens.Add(m.Tokens)
		acc.cost += m.Cost
		acc.messages++
		if !lo.Contains(acc.clients, m.Client) {
			acc.clients = append(acc.clients, m.Client)
		}
		if m.ProviderID != "" && !lo.Contains(acc.providers, m.ProviderID) {
			acc.providers = append(acc.providers, m.ProviderID)
		}
	}

	out := make([]ModelUsage, 0, len(order))
	for _, key := range order {
		acc := accums[key]
		entry := ModelUsage{
			Model:       acc.model,
			Provider:    acc.provider,
			Tokens:      acc.tokens,
			TotalTokens: acc.tokens.Total(),
			Cost:        usage.SanitizeCost(acc.cost),
			Messages:    acc.messages,
		}
		switch groupBy {
		case GroupByModel:
			// Merged entry: join contributing clients in first-seen
			// order, providers deduplicated and sorted.
			entry.Source = strings.Join(acc.clients, ",")
			providers := lo.Uniq(lo.Compact(acc.providers))
			sort.Strings(providers)
			entry.Provider = strings.Join(providers, ",")
		default:
			entry.Client = acc.client
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost > out[j].Cost
		}
		a, b := out[i], out[j]
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.Client < b.Client
	})
	return out
}
