package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const cacheMaxAge = 24 * time.Hour

// readCache loads a catalog snapshot. maxAge 0 accepts any age.
func readCache(path string, maxAge time.Duration) (map[string]Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(info.ModTime()) > maxAge {
		return nil, fmt.Errorf("cache %s older than %s", path, maxAge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var recs map[string]Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding cache %s: %w", path, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("cache %s is empty", path)
	}
	return recs, nil
}

func writeCache(path string, recs map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
