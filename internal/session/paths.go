// Package session resolves the active bookchat profile, its on-disk layout
// and the signed-in identity.
package session

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the base directory (~/.bookchat).
const HomeEnv = "BOOKCHAT_HOME"

// BaseDir returns ~/.bookchat, or $BOOKCHAT_HOME when set.
func BaseDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bookchat")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// DotEnvPath returns the optional .env file next to the config.
func DotEnvPath() string {
	return filepath.Join(BaseDir(), ".env")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the client log file path for a profile.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "bookchat.log")
}

// MarketDir returns the marketplace backend data directory. An empty
// configured value selects ~/.bookchat/market; a leading ~ is expanded.
func MarketDir(configured string) string {
	if configured == "" {
		return filepath.Join(BaseDir(), "market")
	}
	if configured == "~" || strings.HasPrefix(configured, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, configured[1:])
	}
	return configured
}

// MarketDBPath returns the SQLite path inside a market data directory.
func MarketDBPath(dataDir string) string {
	return filepath.Join(dataDir, "market.db")
}

// MarketLogPath returns the marketd log file inside a market data directory.
func MarketLogPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", "marketd.log")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
