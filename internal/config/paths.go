// Package config owns tokscale's on-disk configuration surface: the
// config and cache directories, the primary credentials store and the
// settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Home returns the user's home directory. Every operation needs it; an
// undeterminable home is fatal.
func Home() (string, error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return h, nil
}

// DirFor returns the config directory under the given home.
func DirFor(home string) string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tokscale")
		}
		return filepath.Join(home, "AppData", "Roaming", "tokscale")
	}
	return filepath.Join(home, ".config", "tokscale")
}

// Dir returns the config directory for the current user, or "" when the
// home directory cannot be determined.
func Dir() string {
	home, err := Home()
	if err != nil {
		return ""
	}
	return DirFor(home)
}

// CacheDirFor returns the cache directory under the given home.
// $XDG_CACHE_HOME is honored when set.
func CacheDirFor(home string) string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return filepath.Join(v, "tokscale")
	}
	return filepath.Join(home, ".cache", "tokscale")
}

// EnsureDir creates a directory with permissions restricted to the user.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}
