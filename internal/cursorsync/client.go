package cursorsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL       = "https://cursor.com"
	usageCSVEndpoint     = "/api/dashboard/export-usage-events-csv?strategy=tokens"
	usageSummaryEndpoint = "/api/usage-summary"

	sessionCookie    = "WorkosCursorSessionToken"
	settingsReferer  = "https://www.cursor.com/settings"
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	requestTimeout = 30 * time.Second
)

// ErrSessionExpired distinguishes a rejected session token from
// transport failures.
var ErrSessionExpired = errors.New("cursor session expired, sign in again")

// Client talks to the cursor.com dashboard endpoints with a stored
// session token. The endpoints only answer requests that look like the
// logged-in web app.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) get(ctx context.Context, path, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", sessionCookie+"="+token)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Referer", settingsReferer)
	req.Header.Set("User-Agent", browserUserAgent)
	return c.HTTPClient.Do(req)
}

// FetchUsageCSV downloads one account's usage export. Anything that
// does not look like the export (login page HTML, error JSON) is
// rejected.
func (c *Client) FetchUsageCSV(ctx context.Context, token string) ([]byte, error) {
	resp, err := c.get(ctx, usageCSVEndpoint, token)
	if err != nil {
		return nil, fmt.Errorf("fetching usage export: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrSessionExpired
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("usage export: HTTP %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading usage export: %w", err)
	}
	if !bytes.HasPrefix(body, []byte("Date,")) {
		return nil, fmt.Errorf("usage export is not a CSV (got %q)", preview(body))
	}
	return body, nil
}

func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}

// SessionInfo is the slice of the usage-summary response that proves a
// token is still signed in.
type SessionInfo struct {
	BillingCycleStart string `json:"billingCycleStart"`
	BillingCycleEnd   string `json:"billingCycleEnd"`
}

// ValidateSession checks a token against the usage-summary endpoint. A
// session is good iff the call succeeds and both billing cycle bounds
// come back non-empty.
func (c *Client) ValidateSession(ctx context.Context, token string) (SessionInfo, error) {
	var info SessionInfo
	resp, err := c.get(ctx, usageSummaryEndpoint, token)
	if err != nil {
		return info, fmt.Errorf("fetching usage summary: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return info, ErrSessionExpired
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return info, fmt.Errorf("usage summary: HTTP %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("parsing usage summary: %w", err)
	}
	if info.BillingCycleStart == "" || info.BillingCycleEnd == "" {
		return info, fmt.Errorf("usage summary missing billing cycle bounds")
	}
	return info, nil
}
