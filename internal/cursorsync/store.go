// Package cursorsync manages the Cursor remote-usage subsystem: a
// multi-account credential store, the per-account CSV cache the
// scanner picks up, and the HTTP sync against cursor.com.
package cursorsync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/tokscale/tokscale/internal/config"
)

const storeVersion = 1

// Account is one stored Cursor login.
type Account struct {
	SessionToken string  `json:"sessionToken"`
	UserID       string  `json:"userId"`
	CreatedAt    string  `json:"createdAt"`
	ExpiresAt    *string `json:"expiresAt"`
	Label        string  `json:"label,omitempty"`
}

// Store is the versioned credential file. The active account owns the
// plain usage.csv cache file; every other account gets a suffixed one.
type Store struct {
	Version         int                `json:"version"`
	ActiveAccountID string             `json:"activeAccountId"`
	Accounts        map[string]Account `json:"accounts"`
}

// CredentialsPath is the cursor credential store under home.
func CredentialsPath(home string) string {
	return filepath.Join(config.DirFor(home), "cursor-credentials.json")
}

func legacyCredentialsPath(home string) string {
	return filepath.Join(home, ".tokscale", "cursor-credentials.json")
}

// AccountID derives the stable store key for a session token: the user
// prefix before "::" (or its URL-encoded form) when present, otherwise
// "anon-" plus the first 12 hex chars of the token's SHA-256.
func AccountID(token string) string {
	tok := strings.TrimSpace(token)
	if id := userPrefix(tok); id != "" {
		return id
	}
	sum := sha256.Sum256([]byte(tok))
	return "anon-" + hex.EncodeToString(sum[:6])
}

func userPrefix(token string) string {
	for _, sep := range []string{"%3A%3A", "::"} {
		if i := strings.Index(token, sep); i > 0 {
			return token[:i]
		}
	}
	return ""
}

func newStore() *Store {
	return &Store{Version: storeVersion, Accounts: make(map[string]Account)}
}

// LoadStore reads the credential store. A missing file yields an empty
// store; the legacy location and the flat single-account shape are
// migrated transparently.
func LoadStore(home string) (*Store, error) {
	data, err := os.ReadFile(CredentialsPath(home))
	if os.IsNotExist(err) {
		return loadLegacyStore(home)
	}
	if err != nil {
		return nil, fmt.Errorf("reading cursor credentials: %w", err)
	}
	return decodeStore(data)
}

func loadLegacyStore(home string) (*Store, error) {
	legacy := legacyCredentialsPath(home)
	data, err := os.ReadFile(legacy)
	if os.IsNotExist(err) {
		return newStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading legacy cursor credentials: %w", err)
	}

	s, err := decodeStore(data)
	if err != nil {
		return nil, err
	}
	if err := SaveStore(home, s); err != nil {
		return nil, fmt.Errorf("migrating cursor credentials: %w", err)
	}
	if err := os.Remove(legacy); err != nil {
		log.Printf("[cursorsync] cannot remove legacy credentials %s: %v", legacy, err)
	}
	return s, nil
}

func decodeStore(data []byte) (*Store, error) {
	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing cursor credentials: %w", err)
	}
	if s.Version == 0 {
		if migrated, ok := migrateFlat(data); ok {
			return migrated, nil
		}
		s.Version = storeVersion
	}
	if s.Accounts == nil {
		s.Accounts = make(map[string]Account)
	}
	return &s, nil
}

// migrateFlat lifts the single-account legacy shape (account fields at
// the top level) into a v1 store.
func migrateFlat(data []byte) (*Store, bool) {
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil || acct.SessionToken == "" {
		return nil, false
	}
	id := AccountID(acct.SessionToken)
	if acct.UserID == "" {
		acct.UserID = userPrefix(acct.SessionToken)
	}
	s := newStore()
	s.ActiveAccountID = id
	s.Accounts[id] = acct
	return s, true
}

// SaveStore writes the credential store atomically, mode 0600.
func SaveStore(home string, s *Store) error {
	if s.Version == 0 {
		s.Version = storeVersion
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cursor credentials: %w", err)
	}
	data = append(data, '\n')

	path := CredentialsPath(home)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return writeFileAtomic(path, data, 0o600)
}

// Add inserts or refreshes the account for a session token and returns
// its id. The first account added becomes active; a re-login with an
// empty label keeps the old one.
func (s *Store) Add(token, label string) string {
	tok := strings.TrimSpace(token)
	id := AccountID(tok)
	acct := Account{
		SessionToken: tok,
		UserID:       userPrefix(tok),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Label:        label,
	}
	if prev, ok := s.Accounts[id]; ok && label == "" {
		acct.Label = prev.Label
	}
	s.Accounts[id] = acct
	if s.ActiveAccountID == "" {
		s.ActiveAccountID = id
	}
	return id
}

// Active returns the active account, if any.
func (s *Store) Active() (Account, bool) {
	acct, ok := s.Accounts[s.ActiveAccountID]
	return acct, ok
}

// AccountIDs returns every account id, sorted.
func (s *Store) AccountIDs() []string {
	ids := lo.Keys(s.Accounts)
	sort.Strings(ids)
	return ids
}
