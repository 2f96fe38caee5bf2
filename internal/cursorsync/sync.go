package cursorsync

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

// SyncResult reports one sync run. Error carries per-account failures;
// Synced stays true as long as at least one account produced fresh
// data, so callers can keep using the cache either way.
type SyncResult struct {
	Synced bool   `json:"synced"`
	Rows   int    `json:"rowsSynced"`
	Error  string `json:"error,omitempty"`
}

// Sync refreshes the cached usage CSV of every stored account, active
// account first. Per-account failures are collected into the result
// instead of aborting the run.
func Sync(ctx context.Context, home string, s *Store, client *Client) SyncResult {
	ids := syncOrder(s)
	if len(ids) == 0 {
		return SyncResult{Error: "no cursor accounts configured"}
	}
	if err := os.MkdirAll(CacheDir(home), 0o700); err != nil {
		return SyncResult{Error: fmt.Sprintf("creating cache dir: %v", err)}
	}

	var rows, succeeded int
	var failures []string
	for _, id := range ids {
		acct := s.Accounts[id]
		body, err := client.FetchUsageCSV(ctx, acct.SessionToken)
		if err != nil {
			log.Printf("[cursorsync] %s: %v", id, err)
			failures = append(failures, fmt.Sprintf("%s: %v", id, err))
			continue
		}

		path := AccountCSVPath(home, id)
		if id == s.ActiveAccountID {
			path = ActiveCSVPath(home)
			// a stale per-account copy would be counted twice
			if err := os.Remove(AccountCSVPath(home, id)); err != nil && !os.IsNotExist(err) {
				log.Printf("[cursorsync] removing stale cache for %s: %v", id, err)
			}
		}
		if err := writeFileAtomic(path, body, 0o600); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		rows += csvRowCount(body)
		succeeded++
	}

	res := SyncResult{Synced: succeeded > 0, Rows: rows}
	if len(failures) > 0 {
		res.Error = fmt.Sprintf("%d of %d accounts failed: %s", len(failures), len(ids), strings.Join(failures, "; "))
	}
	return res
}

// syncOrder lists account ids with the active account first, the rest
// sorted.
func syncOrder(s *Store) []string {
	ids := s.AccountIDs()
	for i, id := range ids {
		if id == s.ActiveAccountID && i > 0 {
			copy(ids[1:i+1], ids[:i])
			ids[0] = id
			break
		}
	}
	return ids
}

// csvRowCount counts data rows, excluding the header.
func csvRowCount(body []byte) int {
	n := 0
	for _, line := range bytes.Split(body, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	if n > 0 {
		n--
	}
	return n
}
