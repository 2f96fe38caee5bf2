package cursorsync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAccountID(t *testing.T) {
	if got := AccountID("user_01HXYZ::eyJhbGciOi"); got != "user_01HXYZ" {
		t.Errorf("plain separator: got %q", got)
	}
	if got := AccountID("user_01HXYZ%3A%3AeyJhbGciOi"); got != "user_01HXYZ" {
		t.Errorf("encoded separator: got %q", got)
	}

	anon := AccountID("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	if !strings.HasPrefix(anon, "anon-") {
		t.Fatalf("anonymous id = %q, want anon- prefix", anon)
	}
	if hexPart := strings.TrimPrefix(anon, "anon-"); len(hexPart) != 12 {
		t.Errorf("hex part = %q, want 12 chars", hexPart)
	} else {
		for _, r := range hexPart {
			if !strings.ContainsRune("0123456789abcdef", r) {
				t.Errorf("non-hex char %q in %q", r, anon)
			}
		}
	}
	if again := AccountID("eyJhbGciOiJIUzI1NiJ9.payload.sig"); again != anon {
		t.Errorf("unstable derivation: %q vs %q", anon, again)
	}

	// A leading separator has no user prefix.
	if got := AccountID("::eyJhbGciOi"); !strings.HasPrefix(got, "anon-") {
		t.Errorf("leading separator: got %q, want anon fallback", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	home := t.TempDir()

	s := newStore()
	s.Add("user_a::tok-a", "work")
	s.Add("user_b::tok-b", "")
	if s.ActiveAccountID != "user_a" {
		t.Fatalf("first added account should be active, got %q", s.ActiveAccountID)
	}

	if err := SaveStore(home, s); err != nil {
		t.Fatalf("SaveStore: %v", err)
	}

	path := CredentialsPath(home)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat credentials: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	// The on-disk shape is the versioned schema with expiresAt present.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk map[string]json.RawMessage
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("credentials not valid JSON: %v", err)
	}
	for _, key := range []string{"version", "activeAccountId", "accounts"} {
		if _, ok := onDisk[key]; !ok {
			t.Errorf("missing %q key", key)
		}
	}
	if !strings.Contains(string(raw), `"expiresAt": null`) {
		t.Errorf("expiresAt should serialize as null:\n%s", raw)
	}

	loaded, err := LoadStore(home)
	if err != nil {
		t.Fatalf("LoadStore: %v", err)
	}
	if loaded.Version != 1 || loaded.ActiveAccountID != "user_a" || len(loaded.Accounts) != 2 {
		t.Errorf("loaded = %+v", loaded)
	}
	if acct := loaded.Accounts["user_a"]; acct.Label != "work" || acct.UserID != "user_a" {
		t.Errorf("account = %+v", acct)
	}
}

func TestLoadStoreMissing(t *testing.T) {
	s, err := LoadStore(t.TempDir())
	if err != nil {
		t.Fatalf("LoadStore: %v", err)
	}
	if s.Version != 1 || len(s.Accounts) != 0 || s.ActiveAccountID != "" {
		t.Errorf("empty store = %+v", s)
	}
}

func TestFlatLegacyShapeMigration(t *testing.T) {
	home := t.TempDir()
	path := CredentialsPath(home)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	flat := `{"sessionToken":"user_a::tok-a","createdAt":"2024-06-15T10:00:00Z","expiresAt":null,"label":"old laptop"}`
	if err := os.WriteFile(path, []byte(flat), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadStore(home)
	if err != nil {
		t.Fatalf("LoadStore: %v", err)
	}
	if s.Version != 1 || s.ActiveAccountID != "user_a" || len(s.Accounts) != 1 {
		t.Fatalf("migrated store = %+v", s)
	}
	acct := s.Accounts["user_a"]
	if acct.SessionToken != "user_a::tok-a" || acct.UserID != "user_a" || acct.Label != "old laptop" {
		t.Errorf("migrated account = %+v", acct)
	}
	if acct.CreatedAt != "2024-06-15T10:00:00Z" {
		t.Errorf("createdAt = %q", acct.CreatedAt)
	}
}

func TestLegacyPathMigration(t *testing.T) {
	home := t.TempDir()
	legacy := legacyCredentialsPath(home)
	if err := os.MkdirAll(filepath.Dir(legacy), 0o755); err != nil {
		t.Fatal(err)
	}
	flat := `{"sessionToken":"user_z::tok-z","createdAt":"2024-01-01T00:00:00Z","expiresAt":null}`
	if err := os.WriteFile(legacy, []byte(flat), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadStore(home)
	if err != nil {
		t.Fatalf("LoadStore: %v", err)
	}
	if s.ActiveAccountID != "user_z" {
		t.Errorf("active = %q", s.ActiveAccountID)
	}
	if _, err := os.Stat(CredentialsPath(home)); err != nil {
		t.Errorf("migrated file missing: %v", err)
	}
	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		t.Errorf("legacy file should be gone, stat err = %v", err)
	}
}

func TestAddKeepsLabelOnRelogin(t *testing.T) {
	s := newStore()
	s.Add("user_a::tok-1", "work")
	s.Add("user_a::tok-2", "")

	acct := s.Accounts["user_a"]
	if acct.SessionToken != "user_a::tok-2" {
		t.Errorf("token not refreshed: %q", acct.SessionToken)
	}
	if acct.Label != "work" {
		t.Errorf("label = %q, want carried over", acct.Label)
	}
	if len(s.Accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(s.Accounts))
	}
}
