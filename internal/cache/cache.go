// Package cache implements the dedup guard: a short-TTL cache of the last
// written document per (index, type, id), used to suppress no-op remote
// writes. It is a performance optimization, never a correctness guarantee:
// every failure path degrades to a real write.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/domain/document"
)

// ErrMiss signals an absent cache entry.
var ErrMiss = errors.New("cache: miss")

// Store is the key-value contract the guard runs on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Key identifies one cached document.
type Key struct {
	Index    string
	TypeName string
	ID       string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Index, k.TypeName, k.ID)
}

// Guard compares new documents against the last successfully written one.
type Guard struct {
	store  Store
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewGuard creates a dedup guard.
func NewGuard(store Store, prefix string, ttl time.Duration, logger *zap.Logger) *Guard {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Guard{store: store, prefix: prefix, ttl: ttl, logger: logger}
}

// ShouldWrite reports whether the document differs from the cached copy.
// A miss, a store failure or an unmarshalable document all fall through to a
// real write.
func (g *Guard) ShouldWrite(ctx context.Context, key Key, doc document.Document) bool {
	body, err := doc.MarshalBody()
	if err != nil {
		return true
	}
	cached, err := g.store.Get(ctx, g.prefix+key.String())
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			g.logger.Debug("dedup cache read failed", zap.String("key", key.String()), zap.Error(err))
		}
		return true
	}
	return !bytes.Equal(cached, body)
}

// Remember stores the document body after a successful remote write.
func (g *Guard) Remember(ctx context.Context, key Key, doc document.Document) error {
	body, err := doc.MarshalBody()
	if err != nil {
		return fmt.Errorf("marshal document for cache: %w", err)
	}
	if err := g.store.Set(ctx, g.prefix+key.String(), body, g.ttl); err != nil {
		return fmt.Errorf("remember %s: %w", key, err)
	}
	return nil
}

// Forget evicts the entry for a key. Called synchronously before a remote
// delete so a subsequent recreate is never masked by a stale hit.
func (g *Guard) Forget(ctx context.Context, key Key) error {
	if err := g.store.Del(ctx, g.prefix+key.String()); err != nil {
		return fmt.Errorf("forget %s: %w", key, err)
	}
	return nil
}
