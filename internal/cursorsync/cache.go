package cursorsync

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tokscale/tokscale/internal/config"
)

// CacheDir is the per-account CSV cache directory the scanner reads.
func CacheDir(home string) string {
	return filepath.Join(config.DirFor(home), "cursor-cache")
}

// ActiveCSVPath is the cache file of the active account.
func ActiveCSVPath(home string) string {
	return filepath.Join(CacheDir(home), "usage.csv")
}

// AccountCSVPath is the cache file of a non-active account.
func AccountCSVPath(home, accountID string) string {
	return filepath.Join(CacheDir(home), "usage."+sanitizeAccountID(accountID)+".csv")
}

var reUnsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func sanitizeAccountID(id string) string {
	return reUnsafePathChars.ReplaceAllString(id, "_")
}

// archiveFile moves a cache file into archive/ with a timestamp suffix.
func archiveFile(home, path string) error {
	dir := filepath.Join(CacheDir(home), "archive")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(path), ".csv")
	dst := filepath.Join(dir, fmt.Sprintf("%s.%s.csv", base, time.Now().UTC().Format("20060102T150405Z")))
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("archiving %s: %w", path, err)
	}
	return nil
}

// SwitchActive makes accountID the active account, swapping the cache
// files so usage.csv always belongs to it. The store is saved last, so
// a crash mid-swap is reconciled by the next sync overwriting
// usage.csv.
func SwitchActive(home string, s *Store, accountID string) error {
	if _, ok := s.Accounts[accountID]; !ok {
		return fmt.Errorf("unknown cursor account %q", accountID)
	}
	oldID := s.ActiveAccountID
	if oldID == accountID {
		return nil
	}

	active := ActiveCSVPath(home)
	if oldID != "" && fileExists(active) {
		dst := AccountCSVPath(home, oldID)
		if fileExists(dst) {
			if err := archiveFile(home, dst); err != nil {
				return err
			}
		}
		if err := os.Rename(active, dst); err != nil {
			return fmt.Errorf("parking cache for %s: %w", oldID, err)
		}
	}
	if src := AccountCSVPath(home, accountID); fileExists(src) {
		if err := os.Rename(src, active); err != nil {
			return fmt.Errorf("promoting cache for %s: %w", accountID, err)
		}
	}

	s.ActiveAccountID = accountID
	return SaveStore(home, s)
}

// RemoveAccount drops an account and its cache file. Without purge the
// file is archived instead of deleted. Removing the active account
// promotes the first remaining one; removing the last account deletes
// the credential file entirely.
func RemoveAccount(home string, s *Store, accountID string, purge bool) error {
	if _, ok := s.Accounts[accountID]; !ok {
		return fmt.Errorf("unknown cursor account %q", accountID)
	}

	path := AccountCSVPath(home, accountID)
	if accountID == s.ActiveAccountID {
		path = ActiveCSVPath(home)
	}
	if fileExists(path) {
		if purge {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("removing cache for %s: %w", accountID, err)
			}
		} else if err := archiveFile(home, path); err != nil {
			return err
		}
	}

	delete(s.Accounts, accountID)

	if s.ActiveAccountID == accountID {
		s.ActiveAccountID = ""
		if rest := s.AccountIDs(); len(rest) > 0 {
			s.ActiveAccountID = rest[0]
			if src := AccountCSVPath(home, rest[0]); fileExists(src) {
				if err := os.Rename(src, ActiveCSVPath(home)); err != nil {
					return fmt.Errorf("promoting cache for %s: %w", rest[0], err)
				}
			}
		}
	}

	if len(s.Accounts) == 0 {
		if err := os.Remove(CredentialsPath(home)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing cursor credentials: %w", err)
		}
		return nil
	}
	return SaveStore(home, s)
}
