package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings are the optional user preferences merged into report defaults.
type Settings struct {
	DisabledClients []string `json:"disabledClients,omitempty"`
	DefaultGroupBy  string   `json:"defaultGroupBy,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{}
}

func SettingsPath() string {
	return filepath.Join(Dir(), "settings.json")
}

func LoadSettings() (Settings, error) {
	return LoadSettingsFrom(SettingsPath())
}

func LoadSettingsFrom(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading settings: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parsing settings %s: %w", path, err)
	}

	return s, nil
}

func SaveSettings(s Settings) error {
	return SaveSettingsTo(SettingsPath(), s)
}

func SaveSettingsTo(path string, s Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	return nil
}

// Enabled filters the full client id set through DisabledClients.
func (s Settings) Enabled(all []string) []string {
	if len(s.DisabledClients) == 0 {
		return all
	}
	disabled := make(map[string]bool, len(s.DisabledClients))
	for _, id := range s.DisabledClients {
		disabled[id] = true
	}
	out := make([]string, 0, len(all))
	for _, id := range all {
		if !disabled[id] {
			out = append(out, id)
		}
	}
	return out
}
