// Package config loads and saves the global ~/.bookchat/config.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvAPIURL       = "BOOKCHAT_API_URL"
	EnvUsername     = "BOOKCHAT_USERNAME"
	EnvMarketListen = "BOOKCHAT_MARKET_LISTEN"
)

const (
	DefaultAPIURL  = "http://localhost:8080"
	DefaultTimeout = 5 * time.Second
	DefaultListen  = ":8080"
)

// Config represents the global config file.
type Config struct {
	DefaultProfile string             `toml:"default_profile"`
	APIURL         string             `toml:"api_url"`
	RequestTimeout string             `toml:"request_timeout"`
	Profiles       map[string]Profile `toml:"profiles"`
	Market         Market             `toml:"market"`

	// usernameOverride comes from the environment and wins over any profile.
	usernameOverride string
}

// Profile is the identity a bookchat client signs in as.
type Profile struct {
	UserID   string `toml:"user_id"`
	Username string `toml:"username"`
}

// Market configures the development marketplace backend.
type Market struct {
	Listen  string `toml:"listen"`
	DataDir string `toml:"data_dir"`
}

// Default returns a config with every field at its default value.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		RequestTimeout: DefaultTimeout.String(),
		Profiles:       map[string]Profile{},
		Market:         Market{Listen: DefaultListen},
	}
}

// Load reads config from the given path. Returns nil config and error if file missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Timeout returns the parsed request timeout, falling back to the default
// for empty, malformed or non-positive values.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// Profile returns the named profile. The environment username override, if
// any, replaces the profile's username and makes an unknown profile usable.
func (c *Config) Profile(name string) (Profile, bool) {
	p, ok := c.Profiles[name]
	if c.usernameOverride != "" {
		p.Username = c.usernameOverride
		if p.UserID == "" {
			p.UserID = c.usernameOverride
		}
		return p, true
	}
	return p, ok && p.Username != ""
}

// SetProfile stores p under name.
func (c *Config) SetProfile(name string, p Profile) {
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	c.Profiles[name] = p
}

// ApplyEnv overrides file values from the environment via lookup
// (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvMarketListen); ok && v != "" {
		c.Market.Listen = v
	}
	if v, ok := lookup(EnvUsername); ok && v != "" {
		c.usernameOverride = v
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadEffective loads dotEnvPath into the environment, reads the config
// file at path (defaults when missing) and applies environment overrides.
func LoadEffective(path, dotEnvPath string) (*Config, error) {
	if err := LoadDotEnv(dotEnvPath); err != nil {
		return nil, err
	}
	cfg, err := LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}
