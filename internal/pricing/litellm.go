package pricing

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	litellmCatalogURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"
	litellmCacheFile  = "pricing-litellm.json"
)

// parseLiteLLM reads the community catalog: one big object keyed by
// model id. Entries that fail to decode (the embedded sample_spec,
// schema drift) are skipped. github_copilot/ keys carry subscription
// pricing, not per-token rates, and are dropped.
func parseLiteLLM(body []byte) (map[string]Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding litellm catalog: %w", err)
	}

	out := make(map[string]Record, len(raw))
	for key, entry := range raw {
		if strings.HasPrefix(key, "github_copilot/") {
			continue
		}
		var rec Record
		if err := json.Unmarshal(entry, &rec); err != nil {
			continue
		}
		if rec.isZero() {
			continue
		}
		out[key] = rec
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("litellm catalog held no usable records")
	}
	return out, nil
}
