// Package config provides configuration management for Tenura.
// It loads settings from environment variables with the TENURA_ prefix and
// provides sensible defaults for all configuration options.
//
// The matching and cache thresholds can additionally be overridden from an
// optional YAML file (TENURA_THRESHOLDS_FILE). The default values were chosen
// empirically against the live feeds; changing them changes product behavior,
// so they are kept in one place and never hard-coded at call sites.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Tenura application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Matching MatchingConfig
	Cache    CacheConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port           int     // Server port (default: 6480)
	Host           string  // Server host (default: 127.0.0.1)
	RequestsPerSec float64 // Rate limit applied per process (default: 25)
	RateBurst      int     // Rate limiter burst size (default: 50)
}

// StorageConfig contains backing-store configuration. When neither a
// PostgreSQL DSN nor a SQLite path is set, the core runs storeless: it logs
// once and serves empty results.
type StorageConfig struct {
	Engine         string // Storage engine: postgres, sqlite, none (default: none)
	PostgresDSN    string // PostgreSQL connection string
	SQLitePath     string // Path to a SQLite snapshot file
	RankingCSVPath string // Path to the precomputed top-N identities CSV
}

// MatchingConfig contains the fuzzy-matching thresholds.
//
// Open question carried from the source product: no test or document records
// why these exact values were chosen; they are tuned, not derived. Treat them
// as product behavior, not implementation detail.
type MatchingConfig struct {
	// MinMatchScore is the minimum acceptable token-overlap score for a
	// confident identity or organization match (default: 0.5).
	MinMatchScore float64 `yaml:"min_match_score"`

	// SuccessionScoreThreshold is the (lower) score below which two holder
	// names are considered different people during succession inference
	// (default: 0.45).
	SuccessionScoreThreshold float64 `yaml:"succession_score_threshold"`

	// MinSearchLength is the minimum query length for identity search;
	// shorter queries return empty without touching the store (default: 2).
	MinSearchLength int `yaml:"min_search_length"`

	// MinOrgQueryLength is the minimum query length for organization
	// matching (default: 3).
	MinOrgQueryLength int `yaml:"min_org_query_length"`

	// MaxFetchRows caps the candidate rows fetched from the store per
	// resolution call, bounding in-memory ranking cost (default: 400).
	MaxFetchRows int `yaml:"max_fetch_rows"`

	// DefaultPageSize and MaxPageSize clamp seat-holder pagination
	// (defaults: 20 and 50).
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// CacheConfig contains result-cache and backoff-guard configuration.
type CacheConfig struct {
	// SearchTTL is the lifetime of cached search-result pages (default: 3m).
	SearchTTL time.Duration `yaml:"search_ttl"`

	// ProfileTTL is the lifetime of cached identity profiles. Profiles are
	// more expensive to assemble and change less often (default: 5m).
	ProfileTTL time.Duration `yaml:"profile_ttl"`

	// MaxEntries bounds each cache table; the oldest-inserted entry is
	// evicted on overflow (default: 512).
	MaxEntries int `yaml:"max_entries"`

	// BackoffCooldown is how long lookups are suppressed after the store
	// denies read access (default: 10m).
	BackoffCooldown time.Duration `yaml:"backoff_cooldown"`
}

// LoadConfig loads configuration from environment variables with sensible
// defaults, then applies the optional YAML thresholds file when
// TENURA_THRESHOLDS_FILE is set.
func LoadConfig() (*Config, error) {
	cfg := buildBaseConfig()

	if path := os.Getenv("TENURA_THRESHOLDS_FILE"); path != "" {
		if err := applyThresholdsFile(cfg, path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// thresholdsFile is the YAML shape of the overrides file. Only the matching
// and cache sections are overridable; server and storage settings stay in the
// environment. Durations are YAML strings in Go duration syntax ("3m").
type thresholdsFile struct {
	Matching *MatchingConfig `yaml:"matching"`
	Cache    *cacheOverlay   `yaml:"cache"`
}

// cacheOverlay mirrors CacheConfig with string durations, because YAML has no
// native duration scalar.
type cacheOverlay struct {
	SearchTTL       string `yaml:"search_ttl"`
	ProfileTTL      string `yaml:"profile_ttl"`
	MaxEntries      *int   `yaml:"max_entries"`
	BackoffCooldown string `yaml:"backoff_cooldown"`
}

// applyThresholdsFile overlays cfg with any values present in the YAML file
// at path. Absent keys keep their defaults; a missing file is an error
// because the operator explicitly pointed at it.
func applyThresholdsFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read thresholds file: %w", err)
	}

	// Matching overlays in place, so absent YAML keys keep their defaults.
	overlay := thresholdsFile{Matching: &cfg.Matching}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parse thresholds file %s: %w", path, err)
	}

	if overlay.Cache == nil {
		return nil
	}
	if overlay.Cache.MaxEntries != nil {
		cfg.Cache.MaxEntries = *overlay.Cache.MaxEntries
	}
	for _, d := range []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{overlay.Cache.SearchTTL, &cfg.Cache.SearchTTL, "search_ttl"},
		{overlay.Cache.ProfileTTL, &cfg.Cache.ProfileTTL, "profile_ttl"},
		{overlay.Cache.BackoffCooldown, &cfg.Cache.BackoffCooldown, "backoff_cooldown"},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config: thresholds file %s: %s: %w", path, d.name, err)
		}
		*d.dst = parsed
	}
	return nil
}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults.
func buildBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("TENURA_PORT", 6480),
			Host:           getEnv("TENURA_HOST", "127.0.0.1"),
			RequestsPerSec: getEnvFloat("TENURA_RATE_LIMIT", 25),
			RateBurst:      getEnvInt("TENURA_RATE_BURST", 50),
		},
		Storage: StorageConfig{
			Engine:         getEnv("TENURA_STORAGE_ENGINE", "none"),
			PostgresDSN:    getEnv("TENURA_POSTGRES_DSN", ""),
			SQLitePath:     getEnv("TENURA_SQLITE_PATH", ""),
			RankingCSVPath: getEnv("TENURA_RANKING_CSV", ""),
		},
		Matching: MatchingConfig{
			MinMatchScore:            getEnvFloat("TENURA_MIN_MATCH_SCORE", 0.5),
			SuccessionScoreThreshold: getEnvFloat("TENURA_SUCCESSION_THRESHOLD", 0.45),
			MinSearchLength:          getEnvInt("TENURA_MIN_SEARCH_LENGTH", 2),
			MinOrgQueryLength:        getEnvInt("TENURA_MIN_ORG_QUERY_LENGTH", 3),
			MaxFetchRows:             getEnvInt("TENURA_MAX_FETCH_ROWS", 400),
			DefaultPageSize:          getEnvInt("TENURA_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:              getEnvInt("TENURA_MAX_PAGE_SIZE", 50),
		},
		Cache: CacheConfig{
			SearchTTL:       getEnvDuration("TENURA_SEARCH_CACHE_TTL", 3*time.Minute),
			ProfileTTL:      getEnvDuration("TENURA_PROFILE_CACHE_TTL", 5*time.Minute),
			MaxEntries:      getEnvInt("TENURA_CACHE_MAX_ENTRIES", 512),
			BackoffCooldown: getEnvDuration("TENURA_BACKOFF_COOLDOWN", 10*time.Minute),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the environment variable exists but cannot be parsed as an
// integer, it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "3m") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
