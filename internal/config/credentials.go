package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Credentials is the primary (non-Cursor) auth token store.
type Credentials struct {
	Token   string `json:"token,omitempty"`
	UserID  string `json:"userId,omitempty"`
	SavedAt string `json:"savedAt,omitempty"`
}

// credMu guards read-modify-write cycles on the credentials file.
var credMu sync.Mutex

func CredentialsPath() string {
	return filepath.Join(Dir(), "credentials.json")
}

func LoadCredentials() (Credentials, error) {
	return LoadCredentialsFrom(CredentialsPath())
}

func LoadCredentialsFrom(path string) (Credentials, error) {
	var creds Credentials

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return creds, nil
		}
		return creds, fmt.Errorf("reading credentials: %w", err)
	}

	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials %s: %w", path, err)
	}

	return creds, nil
}

func SaveToken(token, userID string) error {
	return SaveTokenTo(CredentialsPath(), token, userID)
}

func SaveTokenTo(path, token, userID string) error {
	credMu.Lock()
	defer credMu.Unlock()

	creds := Credentials{
		Token:   token,
		UserID:  userID,
		SavedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return writeCredentials(path, creds)
}

func ClearCredentials() error {
	return ClearCredentialsFrom(CredentialsPath())
}

func ClearCredentialsFrom(path string) error {
	credMu.Lock()
	defer credMu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

func writeCredentials(path string, creds Credentials) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating credentials dir: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}
