// Package paths resolves where the strata CLI looks for its database
// file and config.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDatabaseName is the database file created when nothing names
// one explicitly.
const DefaultDatabaseName = "strata.db"

// Environment variable names for overrides.
const (
	EnvDatabase = "STRATA_DB"
	EnvConfig   = "STRATA_CONFIG"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/strata (fallback ~/.local/share/strata)
// macOS:   ~/Library/Application Support/strata
// Windows: %APPDATA%/strata
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "strata"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "strata"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "strata"), nil
	}
}

// ResolveDatabase returns the database file path following the
// precedence chain: flag > config value > STRATA_DB env > the platform
// data directory's strata.db.
func ResolveDatabase(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDatabase); env != "" {
		return filepath.Abs(env)
	}
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultDatabaseName), nil
}

// ResolveConfigFile returns the explicit config file path from flag or
// the STRATA_CONFIG env, or empty when neither is set and the working
// directory should be searched instead.
func ResolveConfigFile(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return filepath.Abs(env)
	}
	return "", nil
}
