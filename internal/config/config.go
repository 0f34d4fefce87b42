package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnvVars are checked in order; the first non-empty one wins.
var APIKeyEnvVars = []string{"WEATHER_API_KEY", "WEATHERAPI_API_KEY"}

type AppConfig struct {
	// WeatherAPIKey may be empty; requests then fail with a configuration error.
	WeatherAPIKey     string
	WeatherAPIBaseURL string `validate:"required,url"`

	// Outbound provider policy.
	UpstreamTimeout      time.Duration `validate:"gt=0"`
	UpstreamMaxRetries   int           `validate:"gte=0,lte=5"`
	UpstreamRetryBackoff time.Duration `validate:"gt=0"`
	UpstreamRPS          float64       `validate:"gt=0"`
	UpstreamBurst        int           `validate:"gte=1"`

	// DigestInterval controls how often farm locations are refreshed.
	DigestInterval    time.Duration `validate:"gt=0"`
	DigestLocations   []string      `validate:"dive,required"`
	DigestConcurrency int           `validate:"gte=1"`

	// In-memory digest retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// locationsFile is the shape of FARM_LOCATIONS_FILE.
type locationsFile struct {
	Locations []string `yaml:"locations"`
}

// Load reads configuration from the environment (and .env when present)
// with sensible defaults.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.WeatherAPIKey = firstEnv(APIKeyEnvVars...)
	cfg.WeatherAPIBaseURL = getenvDefault("WEATHER_API_BASE_URL", "https://api.weatherapi.com/v1")

	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 0)
	if cfg.UpstreamRetryBackoff, err = getenvDuration("UPSTREAM_RETRY_BACKOFF", "500ms"); err != nil {
		return nil, err
	}
	cfg.UpstreamRPS = getenvFloat("UPSTREAM_RPS", 5)
	cfg.UpstreamBurst = getenvInt("UPSTREAM_BURST", 10)

	if cfg.DigestInterval, err = getenvDuration("DIGEST_INTERVAL", "3h"); err != nil {
		return nil, err
	}
	cfg.DigestConcurrency = getenvInt("DIGEST_CONCURRENCY", 4)

	locs, err := loadLocations(os.Getenv("DIGEST_LOCATIONS"), os.Getenv("FARM_LOCATIONS_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.DigestLocations = locs

	// roughly 6 days at the default 3-hour interval
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 48)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "168h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadLocations merges the comma-separated env list with the optional YAML
// file, dropping blanks and case-insensitive duplicates.
func loadLocations(envList, path string) ([]string, error) {
	var raw []string
	if envList != "" {
		raw = append(raw, strings.Split(envList, ",")...)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read FARM_LOCATIONS_FILE: %w", err)
		}
		var f locationsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse FARM_LOCATIONS_FILE: %w", err)
		}
		raw = append(raw, f.Locations...)
	}

	seen := make(map[string]bool, len(raw))
	var locs []string
	for _, l := range raw {
		l = strings.TrimSpace(l)
		k := strings.ToLower(l)
		if l == "" || seen[k] {
			continue
		}
		seen[k] = true
		locs = append(locs, l)
	}
	return locs, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
