package cursorsync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// usageServer serves a distinct one-row CSV per token and rejects
// tokens in the expired set.
func usageServer(t *testing.T, expired map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		token := strings.TrimPrefix(cookie, "WorkosCursorSessionToken=")
		if expired[token] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, "Date,Model,Token\n2024-06-15,gpt-5.1,%s\n", token)
	}))
}

func TestSyncWritesPerAccountFiles(t *testing.T) {
	srv := usageServer(t, nil)
	defer srv.Close()

	home := t.TempDir()
	s := newStore()
	s.Add("user_a::tok-a", "")
	s.Add("user_b::tok-b", "")

	c := &Client{BaseURL: srv.URL, HTTPClient: srv.Client()}
	res := Sync(context.Background(), home, s, c)

	if !res.Synced || res.Error != "" {
		t.Fatalf("result = %+v", res)
	}
	if res.Rows != 2 {
		t.Errorf("rows = %d, want 2", res.Rows)
	}
	if got := readFile(t, ActiveCSVPath(home)); !strings.Contains(got, "tok-a") {
		t.Errorf("usage.csv = %q, want active account data", got)
	}
	if got := readFile(t, AccountCSVPath(home, "user_b")); !strings.Contains(got, "tok-b") {
		t.Errorf("usage.user_b.csv = %q", got)
	}
}

func TestSyncPartialFailure(t *testing.T) {
	srv := usageServer(t, map[string]bool{"user_b::tok-b": true})
	defer srv.Close()

	home := t.TempDir()
	s := newStore()
	s.Add("user_a::tok-a", "")
	s.Add("user_b::tok-b", "")

	c := &Client{BaseURL: srv.URL, HTTPClient: srv.Client()}
	res := Sync(context.Background(), home, s, c)

	if !res.Synced {
		t.Error("partial success should still count as synced")
	}
	if res.Rows != 1 {
		t.Errorf("rows = %d, want 1", res.Rows)
	}
	if !strings.Contains(res.Error, "1 of 2 accounts failed") || !strings.Contains(res.Error, "user_b") {
		t.Errorf("error = %q", res.Error)
	}
	if fileExists(AccountCSVPath(home, "user_b")) {
		t.Error("failed account should not produce a cache file")
	}
}

func TestSyncRemovesStaleActiveCopy(t *testing.T) {
	srv := usageServer(t, nil)
	defer srv.Close()

	home := t.TempDir()
	s := newStore()
	s.Add("user_a::tok-a", "")
	// leftover from before this account became active
	writeCSV(t, AccountCSVPath(home, "user_a"), "Date,Model\nstale\n")

	c := &Client{BaseURL: srv.URL, HTTPClient: srv.Client()}
	res := Sync(context.Background(), home, s, c)
	if !res.Synced {
		t.Fatalf("result = %+v", res)
	}
	if fileExists(AccountCSVPath(home, "user_a")) {
		t.Error("stale per-account copy still present")
	}
	if got := readFile(t, ActiveCSVPath(home)); !strings.Contains(got, "tok-a") {
		t.Errorf("usage.csv = %q", got)
	}
}

func TestSyncNoAccounts(t *testing.T) {
	res := Sync(context.Background(), t.TempDir(), newStore(), NewClient())
	if res.Synced || res.Error == "" {
		t.Errorf("result = %+v", res)
	}
}

func TestSyncOrderActiveFirst(t *testing.T) {
	s := newStore()
	s.Add("user_a::tok-a", "")
	s.Add("user_b::tok-b", "")
	s.Add("user_c::tok-c", "")
	s.ActiveAccountID = "user_c"

	ids := syncOrder(s)
	if len(ids) != 3 || ids[0] != "user_c" || ids[1] != "user_a" || ids[2] != "user_b" {
		t.Errorf("order = %v", ids)
	}
}

func TestCSVRowCount(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{"", 0},
		{"Date,Model\n", 0},
		{"Date,Model\nrow1\n", 1},
		{"Date,Model\nrow1\nrow2", 2},
		{"Date,Model\nrow1\n\nrow2\n", 2},
	}
	for _, tc := range tests {
		if got := csvRowCount([]byte(tc.body)); got != tc.want {
			t.Errorf("csvRowCount(%q) = %d, want %d", tc.body, got, tc.want)
		}
	}
}
