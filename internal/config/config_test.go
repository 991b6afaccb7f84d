package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultProfile = "work"
	cfg.APIURL = "http://market.local:9000"
	cfg.RequestTimeout = "2s"
	cfg.SetProfile("work", Profile{UserID: "7", Username: "alice"})
	cfg.Market = Market{Listen: ":9000", DataDir: "/var/lib/market"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, loaded, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("round trip (-saved +loaded):\n%s", diff)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_profile = \"main\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIURL != DefaultAPIURL || cfg.Market.Listen != DefaultListen {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Profiles == nil {
		t.Error("Profiles should be non-nil")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = [\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("malformed file should fail")
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", DefaultTimeout},
		{"250ms", 250 * time.Millisecond},
		{"bogus", DefaultTimeout},
		{"-1s", DefaultTimeout},
	}
	for _, tt := range tests {
		c := &Config{RequestTimeout: tt.in}
		if got := c.Timeout(); got != tt.want {
			t.Errorf("Timeout(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProfile(t *testing.T) {
	cfg := Default()
	cfg.SetProfile("main", Profile{UserID: "1", Username: "alice"})
	cfg.SetProfile("blank", Profile{UserID: "2"})

	if p, ok := cfg.Profile("main"); !ok || p.Username != "alice" {
		t.Errorf("Profile(main) = %+v, %v", p, ok)
	}
	if _, ok := cfg.Profile("blank"); ok {
		t.Error("profile without username should not be usable")
	}
	if _, ok := cfg.Profile("missing"); ok {
		t.Error("missing profile should not be found")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.SetProfile("main", Profile{UserID: "1", Username: "alice"})
	env := map[string]string{
		EnvAPIURL:       "http://env:1234",
		EnvMarketListen: "127.0.0.1:1234",
		EnvUsername:     "bob",
	}
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	if cfg.APIURL != "http://env:1234" || cfg.Market.Listen != "127.0.0.1:1234" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	p, ok := cfg.Profile("main")
	if !ok || p.Username != "bob" || p.UserID != "1" {
		t.Errorf("Profile(main) = %+v, %v", p, ok)
	}
	if p, ok := cfg.Profile("other"); !ok || p.Username != "bob" {
		t.Errorf("Profile(other) = %+v, %v", p, ok)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BOOKCHAT_TEST_DOTENV=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOOKCHAT_TEST_DOTENV", "")
	_ = os.Unsetenv("BOOKCHAT_TEST_DOTENV")
	if err := LoadDotEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("BOOKCHAT_TEST_DOTENV"); got != "from-file" {
		t.Errorf("env = %q, want from-file", got)
	}
}

func TestLoadEffective(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := Default()
	cfg.APIURL = "http://from-file:1"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIURL, "http://from-env:2")

	got, err := LoadEffective(path, filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if got.APIURL != "http://from-env:2" {
		t.Errorf("APIURL = %q, want the environment override", got.APIURL)
	}
}
