package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Update strategies for event-triggered index writes.
const (
	StrategyFull    = "full"
	StrategyPartial = "partial"
)

// Config holds the syncdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Elastic   ElasticConfig   `yaml:"elastic"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Cache     CacheConfig     `yaml:"cache"`
	Sync      SyncConfig      `yaml:"sync"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds ops HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ElasticConfig holds remote search engine connection settings.
type ElasticConfig struct {
	URL        string `yaml:"url"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// PostgresConfig holds system-of-record connection settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// CacheConfig holds dedup cache settings.
type CacheConfig struct {
	Driver    string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	TTLSec    int      `yaml:"ttl_sec"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// SyncConfig holds lifecycle-event synchronization settings.
type SyncConfig struct {
	Enabled        bool     `yaml:"enabled"`
	UpdateStrategy string   `yaml:"update_strategy"` // full, partial (default: full)
	DisabledTypes  []string `yaml:"disabled_types"`  // fully-qualified type names excluded from auto-sync
	StrictMappings bool     `yaml:"strict_mappings"` // missing index mapping is fatal at validation time
}

// ReconcileConfig holds bulk populate/prune settings.
type ReconcileConfig struct {
	ChunkSize          int `yaml:"chunk_size"`
	ScrollPageSize     int `yaml:"scroll_page_size"`
	ScrollKeepaliveSec int `yaml:"scroll_keepalive_sec"`
}

// SearchConfig holds query execution defaults.
type SearchConfig struct {
	PageSize int `yaml:"page_size"` // default result window size
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Default returns a standalone configuration for library-embedded use,
// where no YAML file is loaded.
func Default() Config {
	cfg := Config{Sync: SyncConfig{Enabled: true}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Elastic.TimeoutSec <= 0 {
		c.Elastic.TimeoutSec = 30
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 60
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "syncdex:"
	}
	if c.Sync.UpdateStrategy == "" {
		c.Sync.UpdateStrategy = StrategyFull
	}
	if c.Reconcile.ChunkSize <= 0 {
		c.Reconcile.ChunkSize = 500
	}
	if c.Reconcile.ScrollPageSize <= 0 {
		c.Reconcile.ScrollPageSize = 100
	}
	if c.Reconcile.ScrollKeepaliveSec <= 0 {
		c.Reconcile.ScrollKeepaliveSec = 60
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = 25
	}
}

// Validate checks the configuration for correctness. Strategy and driver
// mistakes are caught here, never per-event.
func (c *Config) Validate() error {
	switch c.Sync.UpdateStrategy {
	case StrategyFull, StrategyPartial:
		// ok
	default:
		return fmt.Errorf(
			"sync.update_strategy must be %q or %q, got %q",
			StrategyFull, StrategyPartial, c.Sync.UpdateStrategy,
		)
	}
	switch c.Cache.Driver {
	case "memory":
		// ok
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis cache driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"memory\" or \"redis\", got %q", c.Cache.Driver)
	}
	if c.HTTP.Port != 0 && (c.HTTP.Port < 0 || c.HTTP.Port > 65535) {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
