package usage

import (
	"regexp"
	"strings"
)

var (
	reTrailingDate  = regexp.MustCompile(`-20\d{6}$`)
	reDigitDotDigit = regexp.MustCompile(`(\d)\.(\d)`)
	reSpaces        = regexp.MustCompile(`\s+`)
)

// NormalizeModelID collapses release aliases of the same model: one
// trailing 8-digit date suffix is stripped, and Claude-family ids rewrite
// dots between digits to dashes (claude-opus-4.5 and
// claude-opus-4-5-20251101 both become claude-opus-4-5). Other families
// keep their dots, so gemini-2.5-pro is untouched.
func NormalizeModelID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	id = reTrailingDate.ReplaceAllString(id, "")
	bare := id
	if i := strings.LastIndex(bare, "/"); i >= 0 {
		bare = bare[i+1:]
	}
	if strings.HasPrefix(strings.ToLower(bare), "claude") {
		id = reDigitDotDigit.ReplaceAllString(id, "$1-$2")
	}
	return id
}

// NormalizeAgent canonicalizes agent or mode names: trimmed, lowercased,
// runs of whitespace collapsed to a single dash.
func NormalizeAgent(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	return reSpaces.ReplaceAllString(name, "-")
}
