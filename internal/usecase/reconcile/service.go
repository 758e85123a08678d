// Package reconcile rebuilds remote indexes from the system of record in
// bulk: populate pushes every in-scope entity, prune removes remote
// documents that no longer belong.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/config"
	"github.com/kailas-cloud/syncdex/internal/domain"
	"github.com/kailas-cloud/syncdex/internal/index"
	"github.com/kailas-cloud/syncdex/internal/metrics"
	"github.com/kailas-cloud/syncdex/internal/registry"
)

// Report summarizes one reconciliation run.
type Report struct {
	Indexed int // documents pushed by populate
	Failed  int // entities that could not be built or were rejected in bulk
	Pruned  int // remote documents deleted by prune
}

// Service drives bulk reconciliation against one index at a time.
type Service struct {
	reg       Registry
	builder   Builder
	engine    Engine
	chunkSize int
	logger    *zap.Logger
}

// New creates a reconcile service.
func New(reg Registry, builder Builder, engine Engine, cfg config.ReconcileConfig, logger *zap.Logger) *Service {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = 500
	}
	return &Service{reg: reg, builder: builder, engine: engine, chunkSize: chunk, logger: logger}
}

// Populate pushes every in-scope entity of every type configured for the
// index, in chunks. Entities that fail to render are logged and skipped so
// one bad row cannot abort a full rebuild.
func (s *Service) Populate(ctx context.Context, idx string) (Report, error) {
	if err := checkIndex(idx); err != nil {
		return Report{}, err
	}

	types, err := s.reg.Types(idx)
	if err != nil {
		return Report{}, fmt.Errorf("types for %q: %w", idx, err)
	}

	var report Report
	batch := make([]index.BulkAction, 0, s.chunkSize)

	for _, typeName := range types {
		if err := s.populateType(ctx, idx, typeName, &batch, &report); err != nil {
			return report, err
		}
	}

	if err := s.flush(ctx, idx, "populate", batch, &report); err != nil {
		return report, err
	}

	s.logger.Info("Populate finished",
		zap.String("index", idx),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *Service) populateType(
	ctx context.Context, idx, typeName string, batch *[]index.BulkAction, report *Report,
) error {
	src, err := s.reg.Source(typeName)
	if err != nil {
		return fmt.Errorf("resolve source for %q: %w", typeName, err)
	}
	scope, err := s.reg.Scope(typeName)
	if err != nil {
		return fmt.Errorf("resolve scope for %q: %w", typeName, err)
	}

	cursor, err := scope.ResultScope(ctx, idx)
	if err != nil {
		return fmt.Errorf("result scope for %q: %w", typeName, err)
	}
	defer func() { _ = cursor.Close() }()

	for {
		id, ok, err := cursor.Next(ctx)
		if err != nil {
			return fmt.Errorf("scope cursor for %q: %w", typeName, err)
		}
		if !ok {
			return nil
		}

		doc, err := s.builder.Full(ctx, src, typeName, id, idx)
		if err != nil {
			report.Failed++
			metrics.ReconcileDocumentsTotal.WithLabelValues(idx, "populate", "failed").Inc()
			s.logger.Warn("Skipping entity that failed to render",
				zap.String("type", typeName),
				zap.String("id", id),
				zap.String("index", idx),
				zap.Error(err),
			)
			continue
		}

		*batch = append(*batch, index.IndexAction(idx, doc))
		if len(*batch) >= s.chunkSize {
			if err := s.flush(ctx, idx, "populate", *batch, report); err != nil {
				return err
			}
			*batch = (*batch)[:0]
		}
	}
}

// Prune scans the remote index and deletes every document no registered
// type still claims. Deletes are deferred until the scan completes so the
// scroll window is never mutated underneath itself.
func (s *Service) Prune(ctx context.Context, idx string) (Report, error) {
	if err := checkIndex(idx); err != nil {
		return Report{}, err
	}

	types, err := s.reg.Types(idx)
	if err != nil {
		return Report{}, fmt.Errorf("types for %q: %w", idx, err)
	}
	scopes := make([]scopeOf, 0, len(types))
	for _, typeName := range types {
		scope, err := s.reg.Scope(typeName)
		if err != nil {
			return Report{}, fmt.Errorf("resolve scope for %q: %w", typeName, err)
		}
		scopes = append(scopes, scopeOf{typeName: typeName, scope: scope})
	}

	cursor, err := s.engine.Scan(ctx, idx)
	if err != nil {
		return Report{}, fmt.Errorf("scan %q: %w", idx, err)
	}
	defer func() { _ = cursor.Close() }()

	var stale []index.BulkAction
	for {
		hit, ok, err := cursor.Next(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("scan cursor for %q: %w", idx, err)
		}
		if !ok {
			break
		}

		claimed, err := s.claimed(ctx, scopes, hit.ID, idx)
		if err != nil {
			return Report{}, err
		}
		if !claimed {
			stale = append(stale, index.DeleteAction(idx, hit.ID))
		}
	}

	var report Report
	for start := 0; start < len(stale); start += s.chunkSize {
		end := min(start+s.chunkSize, len(stale))
		result, err := s.engine.Bulk(ctx, stale[start:end])
		if err != nil {
			return report, fmt.Errorf("bulk delete on %q: %w", idx, err)
		}
		report.Pruned += result.Succeeded
		report.Failed += result.Failed
		metrics.ReconcileDocumentsTotal.WithLabelValues(idx, "prune", "deleted").Add(float64(result.Succeeded))
	}

	s.logger.Info("Prune finished",
		zap.String("index", idx),
		zap.Int("pruned", report.Pruned),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// CreateIndex creates the remote index with its configured mapping.
func (s *Service) CreateIndex(ctx context.Context, idx string) error {
	if err := checkIndex(idx); err != nil {
		return err
	}
	body, err := s.reg.MappingBody(idx)
	if err != nil {
		return fmt.Errorf("mapping for %q: %w", idx, err)
	}
	if err := s.engine.CreateIndex(ctx, idx, body); err != nil {
		return fmt.Errorf("create index %q: %w", idx, err)
	}
	return nil
}

// DeleteIndex drops the remote index, tolerating an already-missing one.
func (s *Service) DeleteIndex(ctx context.Context, idx string) error {
	if err := checkIndex(idx); err != nil {
		return err
	}
	if err := s.engine.DeleteIndex(ctx, idx, true); err != nil {
		return fmt.Errorf("delete index %q: %w", idx, err)
	}
	return nil
}

// Rebuild drops, recreates, and repopulates the index.
func (s *Service) Rebuild(ctx context.Context, idx string) (Report, error) {
	if err := s.DeleteIndex(ctx, idx); err != nil {
		return Report{}, err
	}
	if err := s.CreateIndex(ctx, idx); err != nil {
		return Report{}, err
	}
	return s.Populate(ctx, idx)
}

type scopeOf struct {
	typeName string
	scope    registry.Scope
}

// claimed reports whether any registered type still wants the document.
func (s *Service) claimed(ctx context.Context, scopes []scopeOf, id, idx string) (bool, error) {
	for _, sc := range scopes {
		in, err := sc.scope.InScope(ctx, id, idx)
		if err != nil {
			return false, fmt.Errorf("scope check for %q: %w", sc.typeName, err)
		}
		if in {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) flush(
	ctx context.Context, idx, operation string, batch []index.BulkAction, report *Report,
) error {
	if len(batch) == 0 {
		return nil
	}
	result, err := s.engine.Bulk(ctx, batch)
	if err != nil {
		return fmt.Errorf("bulk %s on %q: %w", operation, idx, err)
	}
	report.Indexed += result.Succeeded
	report.Failed += result.Failed
	metrics.ReconcileDocumentsTotal.WithLabelValues(idx, operation, "indexed").Add(float64(result.Succeeded))
	if result.Failed > 0 {
		metrics.ReconcileDocumentsTotal.WithLabelValues(idx, operation, "failed").Add(float64(result.Failed))
		s.logger.Warn("Bulk request rejected items",
			zap.String("index", idx),
			zap.String("operation", operation),
			zap.Int("failed", result.Failed),
			zap.Strings("ids", result.FailedIDs),
		)
	}
	return nil
}

func checkIndex(idx string) error {
	if idx == "" || idx == domain.AllIndexes {
		return fmt.Errorf("index %q: %w", idx, domain.ErrReservedIndex)
	}
	return nil
}
