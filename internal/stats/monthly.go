package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/tokscale/tokscale/internal/usage"
)

// MonthlyUsage is one YYYY-MM rollup. Models lists the distinct
// normalized model ids seen that month, sorted.
type MonthlyUsage struct {
	Month       string            `json:"month"`
	Tokens      usage.TokenCounts `json:"tokens"`
	TotalTokens int64             `json:"totalTokens"`
	Cost        float64           `json:"cost"`
	Messages    int64             `json:"messages"`
	Models      []string          `json:"models"`
}

type monthAccum struct {
	tokens   usage.TokenCounts
	cost     float64
	messages int64
	models   map[string]bool
}

// Monthly buckets messages by the YYYY-MM prefix of their date, months
// ascending.
func Monthly(msgs []usage.Message) []MonthlyUsage {
	accums := make(map[string]*monthAccum)
	for _, m := range msgs {
		if len(m.Date) < 7 {
			continue
		}
		month := m.Date[:7]
		acc, ok := accums[month]
		if !ok {
			acc = &monthAccum{models: make(map[string]bool)}
			accums[month] = acc
		}
		acc.tokens.Add(m.Tokens)
		acc.cost += m.Cost
		acc.messages++
		if m.ModelID != "" {
			acc.models[usage.NormalizeModelID(m.ModelID)] = true
		}
	}

	months := lo.Keys(accums)
	sort.Strings(months)

	out := make([]MonthlyUsage, 0, len(months))
	for _, month := range months {
		acc := accums[month]
		models := lo.Keys(acc.models)
		sort.Strings(models)
		out = append(out, MonthlyUsage{
			Month:       month,
			Tokens:      acc.tokens,
			TotalTokens: acc.tokens.Total(),
			Cost:        usage.SanitizeCost(acc.cost),
			Messages:    acc.messages,
			Models:      models,
		})
	}
	return out
}
