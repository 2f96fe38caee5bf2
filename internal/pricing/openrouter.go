package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	openRouterCatalogURL = "https://openrouter.ai/api/v1/models"
	openRouterCacheFile  = "pricing-openrouter.json"
)

type openRouterModel struct {
	ID      string `json:"id"`
	Pricing struct {
		Prompt          string `json:"prompt"`
		Completion      string `json:"completion"`
		InputCacheRead  string `json:"input_cache_read"`
		InputCacheWrite string `json:"input_cache_write"`
	} `json:"pricing"`
}

// parseOpenRouter reads the models listing; rates arrive as decimal
// strings already denominated per token.
func parseOpenRouter(body []byte) (map[string]Record, error) {
	var payload struct {
		Data []openRouterModel `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding openrouter catalog: %w", err)
	}

	out := make(map[string]Record, len(payload.Data))
	for _, m := range payload.Data {
		if m.ID == "" {
			continue
		}
		rec := Record{
			InputCostPerToken:           rateString(m.Pricing.Prompt),
			OutputCostPerToken:          rateString(m.Pricing.Completion),
			CacheReadInputTokenCost:     rateString(m.Pricing.InputCacheRead),
			CacheCreationInputTokenCost: rateString(m.Pricing.InputCacheWrite),
		}
		if rec.isZero() {
			continue
		}
		out[m.ID] = rec
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("openrouter catalog held no usable records")
	}
	return out, nil
}

func rateString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
