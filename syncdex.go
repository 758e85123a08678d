// Package syncdex keeps remote search indexes synchronized with a
// relational system of record: lifecycle events flow through a dedup
// guard into single-document writes, bulk reconciliation repairs drift,
// and every executed query is logged and reconstructable as rows.
package syncdex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/cache"
	cacheRedis "github.com/kailas-cloud/syncdex/internal/cache/redis"
	"github.com/kailas-cloud/syncdex/internal/config"
	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/domain/event"
	"github.com/kailas-cloud/syncdex/internal/domain/querylog"
	"github.com/kailas-cloud/syncdex/internal/domain/relational"
	"github.com/kailas-cloud/syncdex/internal/index/elastic"
	"github.com/kailas-cloud/syncdex/internal/registry"
	querylogrepo "github.com/kailas-cloud/syncdex/internal/repository/querylog"
	resultsrepo "github.com/kailas-cloud/syncdex/internal/repository/results"
	chiTransport "github.com/kailas-cloud/syncdex/internal/transport/chi"
	"github.com/kailas-cloud/syncdex/internal/usecase/autosync"
	queryuc "github.com/kailas-cloud/syncdex/internal/usecase/query"
	reconcileuc "github.com/kailas-cloud/syncdex/internal/usecase/reconcile"
	resultsuc "github.com/kailas-cloud/syncdex/internal/usecase/results"
)

// Re-exported contracts and value types for embedding applications.
type (
	// Config is the full configuration tree.
	Config = config.Config

	// Source renders an entity into an index document.
	Source = document.Source
	// UpdateSource optionally overrides partial document construction.
	UpdateSource = document.UpdateSource
	// Identifier optionally overrides the remote document id.
	Identifier = document.Identifier
	// Fields is an index document body.
	Fields = document.Fields
	// Document is a rendered index document.
	Document = document.Document

	// Scope is the authoritative result scope of an entity type.
	Scope = registry.Scope
	// Cursor iterates entity ids lazily.
	Cursor = registry.Cursor
	// Mapping is a parsed index mapping.
	Mapping = registry.Mapping

	// Event is one entity lifecycle notification.
	Event = event.Event
	// Action is the kind of lifecycle event.
	Action = event.Action

	// QueryLog is one executed query with its hits and timing.
	QueryLog = querylog.QueryLog
	// Hit is normalized hit meta info.
	Hit = querylog.Hit

	// RelationalScope describes the table a hit set materializes from.
	RelationalScope = relational.Scope
	// Result is one reconstructed row with its search annotations.
	Result = resultsuc.Result

	// Report summarizes a reconciliation run.
	Report = reconcileuc.Report

	// QueryOption adjusts one query execution.
	QueryOption = queryuc.Option
	// Hook observes a document before it is written.
	Hook = autosync.Hook
)

// Lifecycle actions.
const (
	ActionIndex  = event.ActionIndex
	ActionUpdate = event.ActionUpdate
	ActionDelete = event.ActionDelete
)

// NewEvent builds a lifecycle event.
func NewEvent(typeName, id string, action Action) (Event, error) {
	return event.New(typeName, id, action)
}

// NewMapping parses an index mapping body.
func NewMapping(body []byte) (Mapping, error) {
	return registry.NewMapping(body)
}

// MappingFromFile loads an index mapping from disk.
func MappingFromFile(path string) (Mapping, error) {
	return registry.MappingFromFile(path)
}

// SliceCursor returns a Cursor over a fixed id slice.
func SliceCursor(ids ...string) Cursor {
	return registry.SliceCursor(ids...)
}

// Query execution options.
var (
	WithoutSave     = queryuc.WithoutSave
	WithUser        = queryuc.WithUser
	WithReference   = queryuc.WithReference
	WithSearchTerms = queryuc.WithSearchTerms
)

// Client is the syncdex entry point.
type Client struct {
	reg    *registry.Registry
	engine *elastic.Client
	guard  *cache.Guard
	pool   *pgxpool.Pool
	logger *zap.Logger
	strict bool

	syncSvc       *autosync.Service
	reconcileSvc  *reconcileuc.Service
	executor      *queryuc.Executor
	reconstructor *resultsuc.Reconstructor
	logs          *querylogrepo.Repo

	closers []func()
}

// New creates a syncdex Client.
func New(opts ...Option) (*Client, error) {
	cc := &clientConfig{cfg: config.Default(), logger: zap.NewNop()}
	for _, o := range opts {
		o(cc)
	}
	cfg := cc.cfg
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("syncdex: invalid configuration: %w", err)
	}

	c := &Client{logger: cc.logger, strict: cfg.Sync.StrictMappings}

	engine, err := elastic.NewClient(elastic.Config{
		URL:             cfg.Elastic.URL,
		Username:        cfg.Elastic.Username,
		Password:        cfg.Elastic.Password,
		Timeout:         time.Duration(cfg.Elastic.TimeoutSec) * time.Second,
		ScrollPageSize:  cfg.Reconcile.ScrollPageSize,
		ScrollKeepalive: time.Duration(cfg.Reconcile.ScrollKeepaliveSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("syncdex: create engine client: %w", err)
	}
	c.engine = engine

	store, err := createCacheStore(cfg.Cache, c)
	if err != nil {
		return nil, err
	}
	c.guard = cache.NewGuard(store, cfg.Cache.KeyPrefix, time.Duration(cfg.Cache.TTLSec)*time.Second, c.logger)

	c.reg = registry.New()
	builder := document.NewBuilder(c.reg, c.logger)

	c.syncSvc = autosync.New(c.reg, builder, engine, c.guard, cfg.Sync, c.logger)
	c.reconcileSvc = reconcileuc.New(c.reg, builder, engine, cfg.Reconcile, c.logger)

	var logWriter queryuc.LogWriter = discardLog{}
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Postgres.DSN)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("syncdex: create postgres pool: %w", err)
		}
		c.pool = pool
		c.closers = append(c.closers, pool.Close)
		c.logs = querylogrepo.NewFromPool(pool)
		c.reconstructor = resultsuc.New(resultsrepo.NewFromPool(pool))
		logWriter = c.logs
	}
	c.executor = queryuc.New(engine, logWriter, cfg.Search, c.logger)

	return c, nil
}

func createCacheStore(cfg config.CacheConfig, c *Client) (cache.Store, error) {
	if cfg.Driver == "redis" {
		store, err := cacheRedis.NewStore(cacheRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("syncdex: create redis cache store: %w", err)
		}
		c.closers = append(c.closers, store.Close)
		return store, nil
	}
	return cache.NewMemoryStore(), nil
}

// Close releases all resources.
func (c *Client) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
	c.closers = nil
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.engine.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Init prepares backing schemas (currently the query log table). Safe to
// call repeatedly.
func (c *Client) Init(ctx context.Context) error {
	if c.logs == nil {
		return nil
	}
	return c.logs.Init(ctx)
}

// AddIndex registers a remote index with its mapping and entity types.
func (c *Client) AddIndex(name string, mapping Mapping, typeNames ...string) error {
	return c.reg.AddIndex(name, mapping, typeNames...)
}

// Register binds an entity type to its document source and scope.
func (c *Client) Register(typeName string, src Source, scope Scope) error {
	return c.reg.Register(typeName, src, scope)
}

// Validate checks the registry for missing mappings and unregistered
// types. Call it after all AddIndex/Register calls, before serving.
func (c *Client) Validate() error {
	return c.reg.Validate(c.strict, c.logger)
}

// HandleEvent routes one lifecycle event to the remote index.
func (c *Client) HandleEvent(ctx context.Context, ev Event) error {
	return c.syncSvc.Handle(ctx, ev)
}

// PauseSync suspends lifecycle writes until the returned release runs.
func (c *Client) PauseSync() (release func()) {
	return c.syncSvc.Pause()
}

// OnBeforeWrite registers a pre-write hook. Empty typeName matches all.
func (c *Client) OnBeforeWrite(typeName string, h Hook) {
	c.syncSvc.OnBeforeWrite(typeName, h)
}

// Populate pushes every in-scope entity into the index.
func (c *Client) Populate(ctx context.Context, idx string) (Report, error) {
	return c.reconcileSvc.Populate(ctx, idx)
}

// Prune removes remote documents no longer in any scope.
func (c *Client) Prune(ctx context.Context, idx string) (Report, error) {
	return c.reconcileSvc.Prune(ctx, idx)
}

// Rebuild drops, recreates and repopulates the index.
func (c *Client) Rebuild(ctx context.Context, idx string) (Report, error) {
	return c.reconcileSvc.Rebuild(ctx, idx)
}

// CreateIndex creates the remote index with its configured mapping.
func (c *Client) CreateIndex(ctx context.Context, idx string) error {
	return c.reconcileSvc.CreateIndex(ctx, idx)
}

// DeleteIndex drops the remote index.
func (c *Client) DeleteIndex(ctx context.Context, idx string) error {
	return c.reconcileSvc.DeleteIndex(ctx, idx)
}

// Search executes a search query and logs it.
func (c *Client) Search(ctx context.Context, idx string, query json.RawMessage, opts ...QueryOption) (QueryLog, error) {
	return c.executor.Search(ctx, idx, query, opts...)
}

// Count executes a count query and logs it.
func (c *Client) Count(ctx context.Context, idx string, query json.RawMessage, opts ...QueryOption) (QueryLog, error) {
	return c.executor.Count(ctx, idx, query, opts...)
}

// GetQueryLog returns a persisted query log entry. Requires WithPostgres.
func (c *Client) GetQueryLog(ctx context.Context, id int64) (QueryLog, error) {
	if c.logs == nil {
		return QueryLog{}, errNoPostgres
	}
	return c.logs.Get(ctx, id)
}

// FromQueryLog materializes a logged query's hits as relational rows.
// Requires WithPostgres.
func (c *Client) FromQueryLog(ctx context.Context, log *QueryLog, scope RelationalScope) ([]Result, error) {
	if c.reconstructor == nil {
		return nil, errNoPostgres
	}
	return c.reconstructor.FromQueryLog(ctx, log, scope)
}

// Handler returns the ops HTTP surface (health, metrics, reconcile and
// query routes) for mounting into the host application's server.
func (c *Client) Handler() http.Handler {
	server := chiTransport.NewServer(c.reconcileSvc, c.executor, c.reg, c.engine, c.logger)
	if c.pool != nil {
		server = server.WithDB(c.pool)
	}
	return server.Routes()
}

type discardLog struct{}

func (discardLog) Save(_ context.Context, log querylog.QueryLog) (querylog.QueryLog, error) {
	return log, nil
}

var errNoPostgres = fmt.Errorf("syncdex: operation requires a postgres connection (use WithPostgres)")
