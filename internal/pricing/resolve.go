package pricing

import (
	"regexp"
	"strings"

	"github.com/tokscale/tokscale/internal/usage"
)

// cursorOverrides carries rates Cursor bills that neither catalog lists
// correctly.
var cursorOverrides = map[string]Record{
	"gpt-5.3": {
		InputCostPerToken:       1.75e-6,
		OutputCostPerToken:      1.4e-5,
		CacheReadInputTokenCost: 1.75e-7,
	},
	"gpt-5.3-codex": {
		InputCostPerToken:       1.75e-6,
		OutputCostPerToken:      1.4e-5,
		CacheReadInputTokenCost: 1.75e-7,
	},
}

// modelAliases maps id spellings the catalogs never carry (Cursor's
// reversed claude names, Kimi's product branding) onto catalog keys.
// Longer prefixes are listed before their shorter family prefix.
var modelAliases = []struct {
	prefix string
	key    string
}{
	{"claude-4.5-sonnet", "claude-sonnet-4-5"},
	{"claude-4.5-opus", "claude-opus-4-5"},
	{"claude-4.5-haiku", "claude-haiku-4-5"},
	{"claude-4-sonnet", "claude-sonnet-4"},
	{"claude-4-opus", "claude-opus-4"},
	{"kimi-for-coding", "moonshotai/kimi-k2"},
	{"kimi-k2", "moonshotai/kimi-k2"},
	{"grok-code", "x-ai/grok-code-fast-1"},
}

var (
	reDashVersion    = regexp.MustCompile(`-(\d)-(\d)`)
	reTrailing8Date  = regexp.MustCompile(`-\d{8}$`)
	reQualitySuffix  = regexp.MustCompile(`-(high|medium|low)$`)
	reThinkingSuffix = regexp.MustCompile(`-thinking$`)
)

// Lookup resolves a model id. forced restricts the search to one
// upstream catalog and disables the override tier.
func (s *Service) Lookup(modelID string, forced Source) (Match, bool) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return Match{}, false
	}
	cands := candidates(modelID)

	// Exact and transformed keys against the catalogs.
	for _, key := range cands {
		if m, ok := s.catalogExact(key, forced); ok {
			return m, true
		}
	}

	if forced == "" {
		for _, key := range cands {
			if rec, ok := cursorOverrides[key]; ok {
				return Match{Key: key, Source: SourceCursor, Record: rec}, true
			}
		}
	}

	for _, alias := range modelAliases {
		if !hasAnyPrefix(cands, alias.prefix) {
			continue
		}
		if m, ok := s.catalogExact(alias.key, forced); ok {
			return m, true
		}
		for _, key := range candidates(alias.key) {
			if m, ok := s.catalogExact(key, forced); ok {
				return m, true
			}
		}
	}
	return Match{}, false
}

func (s *Service) catalogExact(key string, forced Source) (Match, bool) {
	if forced == "" || forced == SourceLiteLLM {
		if rec, ok := s.litellm[key]; ok {
			return Match{Key: key, Source: SourceLiteLLM, Record: rec}, true
		}
	}
	if forced == "" || forced == SourceOpenRouter {
		if rec, ok := s.openrouter[key]; ok {
			return Match{Key: key, Source: SourceOpenRouter, Record: rec}, true
		}
	}
	return Match{}, false
}

// candidates expands a model id through the normalization transforms
// (lowercase, provider strip, -N-M → N.M, quality/date/thinking suffix
// strips), breadth-first so spellings reachable by fewer transforms are
// tried sooner. The raw id always comes first.
func candidates(modelID string) []string {
	var out []string
	seen := make(map[string]bool)
	queue := []string{modelID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
		queue = append(queue,
			strings.ToLower(id),
			stripProvider(id),
			reDashVersion.ReplaceAllString(id, "-$1.$2"),
			reQualitySuffix.ReplaceAllString(id, ""),
			reTrailing8Date.ReplaceAllString(id, ""),
			reThinkingSuffix.ReplaceAllString(id, ""),
		)
	}
	return out
}

func stripProvider(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}

func hasAnyPrefix(cands []string, prefix string) bool {
	for _, c := range cands {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// Cost prices one message's tokens. Reasoning tokens bill at the
// output rate.
func Cost(rec Record, t usage.TokenCounts) float64 {
	cost := float64(t.Input)*rec.InputCostPerToken +
		float64(t.Output)*rec.OutputCostPerToken +
		float64(t.CacheRead)*rec.CacheReadInputTokenCost +
		float64(t.CacheWrite)*rec.CacheCreationInputTokenCost +
		float64(t.Reasoning)*rec.OutputCostPerToken
	return usage.SanitizeCost(cost)
}

// Annotate prices every message in place. A parser-supplied cost is
// kept when the resolver cannot price the model.
func (s *Service) Annotate(msgs []usage.Message, forced Source) {
	for i := range msgs {
		m := &msgs[i]
		match, ok := s.Lookup(m.ModelID, forced)
		if !ok {
			continue
		}
		if c := Cost(match.Record, m.Tokens); c > 0 {
			m.Cost = c
		}
	}
}
