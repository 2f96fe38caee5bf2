// Package pricing resolves model ids to per-token rates. Two upstream
// catalogs (LiteLLM and OpenRouter) are fetched concurrently and cached
// on disk; local overrides cover models the catalogs misprice. Lookup
// falls through exact keys, normalization transforms, overrides, and a
// curated alias table, and reports which tier matched.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Record holds per-token dollar rates. A zero rate means the token
// class is free or unknown.
type Record struct {
	InputCostPerToken           float64 `json:"input_cost_per_token"`
	OutputCostPerToken          float64 `json:"output_cost_per_token"`
	CacheReadInputTokenCost     float64 `json:"cache_read_input_token_cost,omitempty"`
	CacheCreationInputTokenCost float64 `json:"cache_creation_input_token_cost,omitempty"`
}

func (r Record) isZero() bool {
	return r.InputCostPerToken == 0 && r.OutputCostPerToken == 0 &&
		r.CacheReadInputTokenCost == 0 && r.CacheCreationInputTokenCost == 0
}

// Source names the catalog a match came from.
type Source string

const (
	SourceLiteLLM    Source = "litellm"
	SourceOpenRouter Source = "openrouter"
	SourceCursor     Source = "cursor"
)

// Match is a resolved model id with provenance.
type Match struct {
	Key    string
	Source Source
	Record Record
}

const maxConcurrentRequests = 10

// Service loads both catalogs once and answers lookups. A failed load
// is retried on the next call; a successful one is memoized for the
// process lifetime.
type Service struct {
	LiteLLMURL    string
	OpenRouterURL string
	CacheDir      string
	Offline       bool

	client *http.Client
	sem    *semaphore.Weighted

	mu         sync.Mutex
	loaded     bool
	litellm    map[string]Record
	openrouter map[string]Record
}

func NewService(cacheDir string) *Service {
	return &Service{
		LiteLLMURL:    litellmCatalogURL,
		OpenRouterURL: openRouterCatalogURL,
		CacheDir:      cacheDir,
		client:        newHTTPClient(),
		sem:           semaphore.NewWeighted(maxConcurrentRequests),
	}
}

var (
	sharedMu sync.Mutex
	shared   *Service
)

// Shared returns the process-wide service for the given cache
// directory, creating it on first use.
func Shared(cacheDir string) *Service {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil || shared.CacheDir != cacheDir {
		shared = NewService(cacheDir)
	}
	return shared
}

// Load fetches both catalogs. One upstream failing still yields a
// usable partial service; both failing is an error and leaves the
// service unloaded so a later call can retry.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	var g errgroup.Group
	g.Go(func() error {
		m, err := s.loadCatalog(ctx, s.LiteLLMURL, litellmCacheFile, parseLiteLLM)
		if err != nil {
			log.Printf("[pricing] litellm catalog: %v", err)
			return fmt.Errorf("litellm: %w", err)
		}
		s.litellm = m
		return nil
	})
	g.Go(func() error {
		m, err := s.loadCatalog(ctx, s.OpenRouterURL, openRouterCacheFile, parseOpenRouter)
		if err != nil {
			log.Printf("[pricing] openrouter catalog: %v", err)
			return fmt.Errorf("openrouter: %w", err)
		}
		s.openrouter = m
		return nil
	})
	err := g.Wait()

	if len(s.litellm) == 0 && len(s.openrouter) == 0 {
		if err != nil {
			return fmt.Errorf("pricing init: %w", err)
		}
		return errors.New("pricing init: both catalogs empty")
	}
	s.loaded = true
	return nil
}

// loadCatalog prefers a fresh disk cache, then the network, then any
// stale cache as a last resort.
func (s *Service) loadCatalog(ctx context.Context, url, cacheName string, parse func([]byte) (map[string]Record, error)) (map[string]Record, error) {
	cachePath := filepath.Join(s.CacheDir, cacheName)

	if s.Offline {
		recs, err := readCache(cachePath, 0)
		if err != nil {
			return nil, fmt.Errorf("offline with no cache: %w", err)
		}
		return recs, nil
	}
	if recs, err := readCache(cachePath, cacheMaxAge); err == nil {
		return recs, nil
	}

	body, err := s.fetchJSON(ctx, url)
	if err != nil {
		if recs, cacheErr := readCache(cachePath, 0); cacheErr == nil {
			log.Printf("[pricing] fetch failed, using stale cache %s: %v", cacheName, err)
			return recs, nil
		}
		return nil, err
	}
	recs, err := parse(body)
	if err != nil {
		return nil, err
	}
	if err := writeCache(cachePath, recs); err != nil {
		log.Printf("[pricing] cache write %s: %v", cacheName, err)
	}
	return recs, nil
}
