// Package appupdate checks GitHub releases for a newer stable build
// and suggests the upgrade command matching how the binary was
// installed.
package appupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	binaryName = "tokscale"

	defaultLatestReleaseURL = "https://api.github.com/repos/tokscale/tokscale/releases/latest"
	defaultInstallScriptURL = "https://github.com/tokscale/tokscale/releases/latest/download/install.sh"
	defaultRequestTimeout   = 1500 * time.Millisecond
)

// InstallMethod is how the running binary got onto the machine, best
// guess from its path.
type InstallMethod string

const (
	InstallMethodUnknown       InstallMethod = "unknown"
	InstallMethodHomebrew      InstallMethod = "homebrew"
	InstallMethodGoInstall     InstallMethod = "go_install"
	InstallMethodInstallScript InstallMethod = "install_script"
	InstallMethodScoop         InstallMethod = "scoop"
	InstallMethodChocolatey    InstallMethod = "chocolatey"
)

type CheckOptions struct {
	CurrentVersion   string
	ExecutablePath   string
	LatestReleaseURL string
	Timeout          time.Duration
	HTTPClient       *http.Client
}

type Result struct {
	UpdateAvailable bool
	CurrentVersion  string
	LatestVersion   string
	InstallMethod   InstallMethod
	UpgradeHint     string
	ExecutablePath  string
}

// Check fetches the latest release tag and compares it against the
// running version. Dev and pre-release builds skip the network call.
func Check(ctx context.Context, opts CheckOptions) (Result, error) {
	current := normalizeReleaseVersion(opts.CurrentVersion)
	exePath := resolveExecutablePath(opts.ExecutablePath)
	method := detectInstallMethod(exePath)

	result := Result{
		CurrentVersion: current,
		InstallMethod:  method,
		UpgradeHint:    upgradeHint(method),
		ExecutablePath: exePath,
	}

	// Only check updates for stable semver releases.
	if current == "" {
		return result, nil
	}

	latest, err := fetchLatestReleaseVersion(ctx, opts, current)
	if err != nil {
		return result, err
	}

	result.LatestVersion = latest
	result.UpdateAvailable = semver.Compare(latest, current) > 0
	return result, nil
}

func fetchLatestReleaseVersion(ctx context.Context, opts CheckOptions, currentVersion string) (string, error) {
	latestURL := strings.TrimSpace(opts.LatestReleaseURL)
	if latestURL == "" {
		latestURL = defaultLatestReleaseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	requestCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, latestURL, nil)
	if err != nil {
		return "", fmt.Errorf("build latest release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", binaryName+"/"+currentVersion)
	if token := strings.TrimSpace(os.Getenv("TOKSCALE_GITHUB_TOKEN")); token != "" && shouldAttachGitHubToken(latestURL) {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch latest release: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode latest release payload: %w", err)
	}

	latest := normalizeReleaseVersion(payload.TagName)
	if latest == "" {
		return "", fmt.Errorf("latest release tag is not a stable semver: %q", payload.TagName)
	}
	return latest, nil
}

func resolveExecutablePath(explicitPath string) string {
	if p := strings.TrimSpace(explicitPath); p != "" {
		return normalizePathForMatch(p)
	}
	exePath, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exePath); err == nil && strings.TrimSpace(resolved) != "" {
		exePath = resolved
	}
	return normalizePathForMatch(exePath)
}

func normalizePathForMatch(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return strings.ToLower(filepath.ToSlash(filepath.Clean(path)))
}

func detectInstallMethod(executablePath string) InstallMethod {
	path := normalizePathForMatch(executablePath)
	if path == "" {
		return InstallMethodUnknown
	}

	switch {
	case strings.Contains(path, "/cellar/"+binaryName+"/"),
		strings.Contains(path, "/homebrew/cellar/"+binaryName+"/"),
		path == "/opt/homebrew/bin/"+binaryName:
		return InstallMethodHomebrew
	case strings.Contains(path, "/scoop/apps/"+binaryName+"/"):
		return InstallMethodScoop
	case strings.Contains(path, "/chocolatey/lib/"+binaryName+"/"),
		strings.Contains(path, "/chocolatey/bin/"+binaryName):
		return InstallMethodChocolatey
	case isGoInstallPath(path):
		return InstallMethodGoInstall
	case isInstallScriptPath(path):
		return InstallMethodInstallScript
	default:
		return InstallMethodUnknown
	}
}

// isGoInstallPath matches GOBIN, every GOPATH/bin and the default
// ~/go/bin location.
func isGoInstallPath(path string) bool {
	if matchesBinary(path, "/go/bin") {
		return true
	}

	if gobin := normalizePathForMatch(os.Getenv("GOBIN")); gobin != "" {
		if path == gobin+"/"+binaryName || path == gobin+"/"+binaryName+".exe" {
			return true
		}
	}

	for _, gp := range filepath.SplitList(os.Getenv("GOPATH")) {
		gopath := normalizePathForMatch(gp)
		if gopath == "" {
			continue
		}
		if path == gopath+"/bin/"+binaryName || path == gopath+"/bin/"+binaryName+".exe" {
			return true
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if homePath := normalizePathForMatch(home); homePath != "" {
			if path == homePath+"/go/bin/"+binaryName || path == homePath+"/go/bin/"+binaryName+".exe" {
				return true
			}
		}
	}

	return false
}

func isInstallScriptPath(path string) bool {
	if path == "/usr/local/bin/"+binaryName || path == "/usr/bin/"+binaryName {
		return true
	}

	if home, err := os.UserHomeDir(); err == nil {
		if homePath := normalizePathForMatch(home); homePath != "" {
			if path == homePath+"/.local/bin/"+binaryName ||
				path == homePath+"/bin/"+binaryName ||
				path == homePath+"/bin/"+binaryName+".exe" {
				return true
			}
		}
	}

	return false
}

func matchesBinary(path, dirSuffix string) bool {
	return strings.HasSuffix(path, dirSuffix+"/"+binaryName) ||
		strings.HasSuffix(path, dirSuffix+"/"+binaryName+".exe")
}

func upgradeHint(method InstallMethod) string {
	switch method {
	case InstallMethodHomebrew:
		return "brew upgrade " + binaryName
	case InstallMethodGoInstall:
		return "go install github.com/tokscale/tokscale/cmd/tokscale@latest"
	case InstallMethodScoop:
		return "scoop update " + binaryName
	case InstallMethodChocolatey:
		return "choco upgrade " + binaryName + " -y"
	default:
		return "curl -fsSL " + defaultInstallScriptURL + " | bash"
	}
}

func normalizeReleaseVersion(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	if semver.Prerelease(v) != "" || semver.Build(v) != "" {
		return ""
	}
	return semver.Canonical(v)
}

func shouldAttachGitHubToken(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), "api.github.com")
}
