// Package version holds build-time metadata injected via ldflags.
package version

// Set at build time:
//
//	-X 'github.com/tokscale/tokscale/internal/version.Version=v1.2.3'
//	-X 'github.com/tokscale/tokscale/internal/version.CommitHash=abc1234'
//	-X 'github.com/tokscale/tokscale/internal/version.BuildDate=2026-01-02'
//
// Source builds keep the defaults and report as "dev".
var (
	Version    = "dev"
	CommitHash = ""
	BuildDate  = ""
)

// String renders the version with whatever build metadata is present.
func String() string {
	s := Version
	if CommitHash != "" {
		s += " (" + CommitHash + ")"
	}
	if BuildDate != "" {
		s += " built " + BuildDate
	}
	return s
}
