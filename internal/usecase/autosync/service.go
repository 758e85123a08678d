// Package autosync routes entity lifecycle events to the remote index.
package autosync

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/cache"
	"github.com/kailas-cloud/syncdex/internal/config"
	"github.com/kailas-cloud/syncdex/internal/domain"
	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/domain/event"
	"github.com/kailas-cloud/syncdex/internal/metrics"
	"github.com/kailas-cloud/syncdex/internal/registry"
)

// Service decides, per lifecycle event, whether and how to mutate the
// remote index.
type Service struct {
	reg     Registry
	builder Builder
	writer  Writer
	guard   Deduper
	hooks   *Hooks
	logger  *zap.Logger

	enabled  bool
	partial  bool
	disabled map[string]struct{}

	// pauseCount > 0 suspends all writes (scoped, re-entrant).
	pauseCount atomic.Int64
}

// New creates a sync service.
func New(reg Registry, builder Builder, writer Writer, guard Deduper,
	cfg config.SyncConfig, logger *zap.Logger,
) *Service {
	disabled := make(map[string]struct{}, len(cfg.DisabledTypes))
	for _, t := range cfg.DisabledTypes {
		disabled[t] = struct{}{}
	}
	return &Service{
		reg:      reg,
		builder:  builder,
		writer:   writer,
		guard:    guard,
		hooks:    newHooks(logger),
		logger:   logger,
		enabled:  cfg.Enabled,
		partial:  cfg.UpdateStrategy == config.StrategyPartial,
		disabled: disabled,
	}
}

// OnBeforeWrite registers a hook invoked before every index mutation for
// the given type. An empty typeName matches all types.
func (s *Service) OnBeforeWrite(typeName string, h Hook) {
	s.hooks.add(typeName, h)
}

// Pause suspends index writes until the returned release func is called.
// Calls nest; writes resume when every release has run.
func (s *Service) Pause() (release func()) {
	s.pauseCount.Add(1)
	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			s.pauseCount.Add(-1)
		}
	}
}

// Handle fans a lifecycle event out to every index configured for its type.
// Per-index write failures are logged and counted, not returned: a search
// index lagging the system of record is recoverable by reconciliation,
// while failing the caller's transaction is not.
func (s *Service) Handle(ctx context.Context, ev event.Event) error {
	if !s.syncEnabled(ev.TypeName()) {
		s.logger.Debug("Sync disabled, skipping event",
			zap.String("type", ev.TypeName()),
			zap.String("id", ev.ID()),
			zap.String("action", string(ev.Action())),
		)
		return nil
	}

	src, err := s.reg.Source(ev.TypeName())
	if err != nil {
		return fmt.Errorf("resolve source for %q: %w", ev.TypeName(), err)
	}
	scope, err := s.reg.Scope(ev.TypeName())
	if err != nil {
		return fmt.Errorf("resolve scope for %q: %w", ev.TypeName(), err)
	}

	indexes := s.reg.Indexes(ev.TypeName())
	if ev.Targeted() {
		if !contains(indexes, ev.Index()) {
			return fmt.Errorf("index %q for type %q: %w", ev.Index(), ev.TypeName(), domain.ErrIndexNotConfigured)
		}
		indexes = []string{ev.Index()}
	}

	for _, idx := range indexes {
		if err := s.dispatch(ctx, ev, src, scope, idx); err != nil {
			metrics.SyncActionsTotal.WithLabelValues(idx, string(ev.Action()), "failed").Inc()
			s.logger.Error("Index sync failed",
				zap.String("type", ev.TypeName()),
				zap.String("id", ev.ID()),
				zap.String("index", idx),
				zap.String("action", string(ev.Action())),
				zap.Error(err),
			)
		}
	}
	return nil
}

// dispatch applies one event to one index. Deletes evict the dedup entry
// before touching the remote so a failed delete cannot leave a cache entry
// that suppresses the retry.
func (s *Service) dispatch(
	ctx context.Context, ev event.Event, src document.Source, scope registry.Scope, idx string,
) error {
	key := cache.Key{Index: idx, TypeName: ev.TypeName(), ID: ev.ID()}

	if ev.Action() == event.ActionDelete {
		if err := s.guard.Forget(ctx, key); err != nil {
			s.logger.Warn("Dedup cache evict failed",
				zap.String("key", key.String()), zap.Error(err))
		}
		// Deletes build no document; hooks get an id-only stub.
		s.hooks.fire(ctx, ev, document.New(ev.ID(), nil))
		if err := s.writer.Delete(ctx, idx, ev.ID()); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		metrics.SyncActionsTotal.WithLabelValues(idx, string(ev.Action()), "written").Inc()
		return nil
	}

	in, err := scope.InScope(ctx, ev.ID(), idx)
	if err != nil {
		return fmt.Errorf("scope check: %w", err)
	}
	if !in {
		metrics.SyncActionsTotal.WithLabelValues(idx, string(ev.Action()), "skipped").Inc()
		s.logger.Debug("Entity outside index scope, skipping",
			zap.String("type", ev.TypeName()),
			zap.String("id", ev.ID()),
			zap.String("index", idx),
		)
		return nil
	}

	usePartial := s.partial && ev.Action() == event.ActionUpdate && len(ev.ChangedFields()) > 0

	var doc document.Document
	if usePartial {
		doc, err = s.builder.Partial(ctx, src, ev.TypeName(), ev.ID(), idx, ev.ChangedFields())
	} else {
		doc, err = s.builder.Full(ctx, src, ev.TypeName(), ev.ID(), idx)
	}
	if err != nil {
		return fmt.Errorf("build document: %w", err)
	}
	if usePartial && doc.Empty() {
		metrics.SyncActionsTotal.WithLabelValues(idx, string(ev.Action()), "skipped").Inc()
		return nil
	}

	if !ev.Force() && !s.guard.ShouldWrite(ctx, key, doc) {
		metrics.SyncActionsTotal.WithLabelValues(idx, string(ev.Action()), "deduped").Inc()
		return nil
	}

	s.hooks.fire(ctx, ev, doc)

	if usePartial {
		err = s.writer.Update(ctx, idx, doc.ID(), doc.Fields())
	} else {
		err = s.writer.Index(ctx, idx, doc.ID(), doc.Fields())
	}
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	if err := s.guard.Remember(ctx, key, doc); err != nil {
		s.logger.Warn("Dedup cache write failed",
			zap.String("key", key.String()), zap.Error(err))
	}
	metrics.SyncActionsTotal.WithLabelValues(idx, string(ev.Action()), "written").Inc()
	return nil
}

func (s *Service) syncEnabled(typeName string) bool {
	if !s.enabled || s.pauseCount.Load() > 0 {
		return false
	}
	_, off := s.disabled[typeName]
	return !off
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
