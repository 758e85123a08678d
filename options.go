package syncdex

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/config"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	cfg    config.Config
	logger *zap.Logger
}

// WithElastic configures the remote search engine connection.
func WithElastic(url, username, password string) Option {
	return func(c *clientConfig) {
		c.cfg.Elastic.URL = url
		c.cfg.Elastic.Username = username
		c.cfg.Elastic.Password = password
	}
}

// WithPostgres enables query log persistence and result reconstruction
// against the given system-of-record DSN.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.cfg.Postgres.DSN = dsn
	}
}

// WithRedisCache backs the dedup guard with Redis.
func WithRedisCache(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.cfg.Cache.Driver = "redis"
		c.cfg.Cache.Addrs = addrs
		c.cfg.Cache.Password = password
	}
}

// WithMemoryCache backs the dedup guard with an in-process store. This is
// the default.
func WithMemoryCache() Option {
	return func(c *clientConfig) {
		c.cfg.Cache.Driver = "memory"
	}
}

// WithCacheTTL overrides the dedup window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cfg.Cache.TTLSec = int(ttl / time.Second)
	}
}

// WithPartialUpdates switches save events carrying changed fields to
// partial document updates instead of full reindexes.
func WithPartialUpdates() Option {
	return func(c *clientConfig) {
		c.cfg.Sync.UpdateStrategy = config.StrategyPartial
	}
}

// WithSyncDisabled starts the client with lifecycle sync off. Events are
// accepted and dropped; reconciliation still works.
func WithSyncDisabled() Option {
	return func(c *clientConfig) {
		c.cfg.Sync.Enabled = false
	}
}

// WithDisabledTypes excludes the named types from lifecycle sync.
func WithDisabledTypes(typeNames ...string) Option {
	return func(c *clientConfig) {
		c.cfg.Sync.DisabledTypes = append(c.cfg.Sync.DisabledTypes, typeNames...)
	}
}

// WithStrictMappings makes Validate fail when an index has no mapping.
func WithStrictMappings() Option {
	return func(c *clientConfig) {
		c.cfg.Sync.StrictMappings = true
	}
}

// WithConfig replaces the whole configuration at once. Options applied
// after it override individual fields.
func WithConfig(cfg config.Config) Option {
	return func(c *clientConfig) {
		c.cfg = cfg
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
