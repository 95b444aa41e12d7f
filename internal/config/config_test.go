package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.FeedURL != DefaultFeedURL {
		t.Errorf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.RefreshInterval != time.Minute {
		t.Errorf("RefreshInterval = %v, want 1m", cfg.RefreshInterval)
	}
	if cfg.FetchTimeout != 0 {
		t.Errorf("FetchTimeout = %v, want 0", cfg.FetchTimeout)
	}
	if cfg.MaxDepartures != 3 || cfg.HorizonMinutes != 120 {
		t.Errorf("MaxDepartures, HorizonMinutes = %d, %d", cfg.MaxDepartures, cfg.HorizonMinutes)
	}
	if cfg.DefaultLat != DefaultLat || cfg.DefaultLon != DefaultLon {
		t.Errorf("default location = %f,%f", cfg.DefaultLat, cfg.DefaultLon)
	}
	if cfg.APIToken != "" {
		t.Errorf("APIToken = %q, want empty", cfg.APIToken)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("POPPY_PORT", "9090")
	t.Setenv("POPPY_REFRESH_INTERVAL", "30s")
	t.Setenv("POPPY_DEFAULT_LAT", "37.8")
	t.Setenv("POPPY_MAX_DEPARTURES", "not-a-number")
	t.Setenv("POPPY_API_TOKEN", "s3cret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval)
	}
	if cfg.DefaultLat != 37.8 {
		t.Errorf("DefaultLat = %f", cfg.DefaultLat)
	}
	if cfg.MaxDepartures != 3 {
		t.Errorf("malformed env should fall back: MaxDepartures = %d", cfg.MaxDepartures)
	}
	if cfg.APIToken != "s3cret" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
}

func TestLoad_YAMLOverridesEnv(t *testing.T) {
	t.Setenv("POPPY_PORT", "9090")
	path := filepath.Join(t.TempDir(), "poppy.yml")
	yml := "port: 7070\nrefresh_interval: 2m\ntimezone: America/Los_Angeles\naddress: 2000 Mission St\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Port)
	}
	if cfg.RefreshInterval != 2*time.Minute {
		t.Errorf("RefreshInterval = %v, want 2m", cfg.RefreshInterval)
	}
	if cfg.Address != "2000 Mission St" {
		t.Errorf("Address = %q", cfg.Address)
	}
	if cfg.DBPath != "./poppy.db" {
		t.Errorf("unset keys should keep defaults: DBPath = %q", cfg.DBPath)
	}
	loc, err := cfg.Location()
	if err != nil || loc == nil || loc.String() != "America/Los_Angeles" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yml")
	os.WriteFile(path, []byte("port: [not, an, int]\n"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"bad feed url", func(c *Config) { c.FeedURL = "not a url" }},
		{"zero refresh", func(c *Config) { c.RefreshInterval = 0 }},
		{"latitude out of range", func(c *Config) { c.DefaultLat = 123 }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus_Mons" }},
		{"negative fetch timeout", func(c *Config) { c.FetchTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := Load("")
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
