package cursorsync

import (
	"context"
	"errors"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register cookie store finders
)

// SessionTokenFromBrowser searches the cookie stores of installed
// browsers for a Cursor session. Returns the token and the browser it
// came from.
func SessionTokenFromBrowser(ctx context.Context) (string, string, error) {
	cookies := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix("cursor.com"), kooky.Name(sessionCookie))
	for _, c := range cookies {
		if strings.TrimSpace(c.Value) == "" {
			continue
		}
		browser := ""
		if c.Browser != nil {
			browser = c.Browser.Browser()
		}
		return c.Value, browser, nil
	}
	return "", "", errors.New("no cursor session cookie found in any browser profile")
}
