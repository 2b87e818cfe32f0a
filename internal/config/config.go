// Package config provides configuration loading and structs for the nexsearch service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nexventures/nexsearch/internal/ranking"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for the application.
type Config struct {
	Debug   bool           `yaml:"debug"`
	Server  ServerConfig   `yaml:"server"`
	Catalog CatalogConfig  `yaml:"catalog"`
	Search  SearchConfig   `yaml:"search"`
	Ranking ranking.Config `yaml:"ranking"`
	Cache   CacheConfig    `yaml:"cache"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig selects and locates the product catalog.
type CatalogConfig struct {
	// Driver is one of memory, sqlite, postgres, bleve.
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url"`
	BlevePath   string `yaml:"bleve_path"`
	// SeedFiles are JSON, YAML or XLSX product files synced into the catalog on start.
	SeedFiles []string `yaml:"seed_files"`
	// Prune deletes catalog products missing from the seed files after a full sync.
	Prune bool `yaml:"prune"`
	// Watch re-syncs seed files when they change on disk.
	Watch bool `yaml:"watch"`
}

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	DefaultLimit        int           `yaml:"default_limit"`
	MaxLimit            int           `yaml:"max_limit"`
	TypoThreshold       float64       `yaml:"typo_threshold"`
	MaxTypoWordLength   int           `yaml:"max_typo_word_len"`
	TitleSampleSize     int           `yaml:"title_sample_size"`
	PairLimit           int           `yaml:"pair_limit"`
	RelatedLimit        int           `yaml:"related_limit"`
	CategorySuggestions *bool         `yaml:"category_suggestions"`
	CategoryTopN        int           `yaml:"category_top_n"`
	RemoveStopWords     bool          `yaml:"remove_stop_words"`
	Timeout             time.Duration `yaml:"timeout"`
}

// CategorySuggestionsEnabled returns whether category suggestions are on; defaults to true when unset.
func (s *SearchConfig) CategorySuggestionsEnabled() bool {
	if s.CategorySuggestions != nil {
		return *s.CategorySuggestions
	}
	return true
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	// Driver is one of none, memory, redis.
	Driver     string `yaml:"driver"`
	RedisURL   string `yaml:"redis_url"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	Capacity   int    `yaml:"capacity"`
}

// TTL returns the entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// IsEnabled returns whether metrics are exposed; defaults to true when unset.
func (m *MetricsConfig) IsEnabled() bool {
	if m.Enabled != nil {
		return *m.Enabled
	}
	return true
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads the config file at path, expands ${VAR} and ${VAR:-default}
// references, applies defaults, resolves paths and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Catalog.SQLitePath = expandPath(cfg.Catalog.SQLitePath, configDir)
	cfg.Catalog.BlevePath = expandPath(cfg.Catalog.BlevePath, configDir)
	for i := range cfg.Catalog.SeedFiles {
		cfg.Catalog.SeedFiles[i] = expandPath(cfg.Catalog.SeedFiles[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 1 and 65535, got %d", ErrInvalidConfig, c.Server.Port)
	}
	switch c.Catalog.Driver {
	case "memory":
	case "sqlite":
		if c.Catalog.SQLitePath == "" {
			return fmt.Errorf("%w: catalog.sqlite_path is required for the sqlite driver", ErrInvalidConfig)
		}
	case "postgres":
		if c.Catalog.PostgresURL == "" {
			return fmt.Errorf("%w: catalog.postgres_url is required for the postgres driver", ErrInvalidConfig)
		}
	case "bleve":
		if c.Catalog.BlevePath == "" {
			return fmt.Errorf("%w: catalog.bleve_path is required for the bleve driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: catalog.driver must be memory, sqlite, postgres or bleve, got %q", ErrInvalidConfig, c.Catalog.Driver)
	}
	switch c.Cache.Driver {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("%w: cache.redis_url is required for the redis driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: cache.driver must be none, memory or redis, got %q", ErrInvalidConfig, c.Cache.Driver)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("%w: search.default_limit %d exceeds search.max_limit %d", ErrInvalidConfig, c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Search.TypoThreshold <= 0 || c.Search.TypoThreshold > 100 {
		return fmt.Errorf("%w: search.typo_threshold must be in (0, 100], got %g", ErrInvalidConfig, c.Search.TypoThreshold)
	}
	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// expandPath converts a path to absolute. "~/" is the home directory, paths starting
// with "./" are relative to configDir, and other relative paths are relative to the
// home directory. Empty paths and ":memory:" are returned unchanged.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}
