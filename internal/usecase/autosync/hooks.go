package autosync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/domain/event"
)

// Hook observes a document immediately before it is written to the index.
type Hook func(ctx context.Context, ev event.Event, doc document.Document)

// Hooks is a per-type hook registry. A panicking hook is recovered and
// logged so it cannot block the index write.
type Hooks struct {
	mu     sync.RWMutex
	byType map[string][]Hook
	logger *zap.Logger
}

func newHooks(logger *zap.Logger) *Hooks {
	return &Hooks{byType: make(map[string][]Hook), logger: logger}
}

func (h *Hooks) add(typeName string, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byType[typeName] = append(h.byType[typeName], hook)
}

func (h *Hooks) fire(ctx context.Context, ev event.Event, doc document.Document) {
	h.mu.RLock()
	hooks := make([]Hook, 0, len(h.byType[""])+len(h.byType[ev.TypeName()]))
	hooks = append(hooks, h.byType[""]...)
	hooks = append(hooks, h.byType[ev.TypeName()]...)
	h.mu.RUnlock()

	for _, hook := range hooks {
		h.run(ctx, ev, doc, hook)
	}
}

func (h *Hooks) run(ctx context.Context, ev event.Event, doc document.Document, hook Hook) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Sync hook panicked",
				zap.String("type", ev.TypeName()),
				zap.String("id", ev.ID()),
				zap.Any("panic", r),
			)
		}
	}()
	hook(ctx, ev, doc)
}
