// Package config loads poppy's settings from the environment, an optional
// YAML file and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default location: 16th St Mission, San Francisco.
const (
	DefaultLat = 37.764831501887876
	DefaultLon = -122.42142043985223
)

// DefaultFeedURL is BART's GTFS-realtime trip update feed.
const DefaultFeedURL = "https://api.bart.gov/gtfsrt/tripupdate.aspx"

// Config holds application configuration.
type Config struct {
	Port            int           `yaml:"port" validate:"gt=0,lte=65535"`
	DBPath          string        `yaml:"db_path" validate:"required"`
	FeedURL         string        `yaml:"feed_url" validate:"omitempty,url"`
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"gt=0"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" validate:"gte=0"` // 0 = transport default
	Timezone        string        `yaml:"timezone" validate:"omitempty,timezone"`

	DefaultLat  float64 `yaml:"default_lat" validate:"latitude"`
	DefaultLon  float64 `yaml:"default_lon" validate:"longitude"`
	Address     string  `yaml:"address"` // Geocoded to replace the default coordinate
	GeocoderURL string  `yaml:"geocoder_url" validate:"omitempty,url"`

	MaxDepartures  int           `yaml:"max_departures" validate:"gt=0"`
	HorizonMinutes int           `yaml:"horizon_minutes" validate:"gt=0"`
	RouteCacheTTL  time.Duration `yaml:"route_cache_ttl" validate:"gt=0"`

	GTFSSource string `yaml:"gtfs_source"` // URL or zip path for `poppy import`
	GTFSDir    string `yaml:"gtfs_dir" validate:"required"`

	APIToken string `yaml:"api_token"` // Required on POST endpoints when set

	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
}

// Load reads configuration from environment variables with defaults, then
// overlays the YAML file at path when path is not empty. The result is not
// validated; call Validate after applying flag overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:            envInt("POPPY_PORT", 8080),
		DBPath:          envStr("POPPY_DB_PATH", "./poppy.db"),
		FeedURL:         envStr("POPPY_FEED_URL", DefaultFeedURL),
		RefreshInterval: envDuration("POPPY_REFRESH_INTERVAL", time.Minute),
		FetchTimeout:    envDuration("POPPY_FETCH_TIMEOUT", 0),
		Timezone:        envStr("POPPY_TIMEZONE", ""),
		DefaultLat:      envFloat("POPPY_DEFAULT_LAT", DefaultLat),
		DefaultLon:      envFloat("POPPY_DEFAULT_LON", DefaultLon),
		Address:         envStr("POPPY_ADDRESS", ""),
		GeocoderURL:     envStr("POPPY_GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		MaxDepartures:   envInt("POPPY_MAX_DEPARTURES", 3),
		HorizonMinutes:  envInt("POPPY_HORIZON_MINUTES", 120),
		RouteCacheTTL:   envDuration("POPPY_ROUTE_CACHE_TTL", time.Hour),
		GTFSSource:      envStr("POPPY_GTFS_SOURCE", "https://www.bart.gov/dev/schedules/google_transit.zip"),
		GTFSDir:         envStr("POPPY_GTFS_DIR", "./data"),
		APIToken:        envStr("POPPY_API_TOKEN", ""),
		LogLevel:        envStr("POPPY_LOG_LEVEL", "info"),
		LogFormat:       envStr("POPPY_LOG_FORMAT", "text"),
	}

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location returns the configured time zone, or nil when none is set.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	return time.LoadLocation(c.Timezone)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
