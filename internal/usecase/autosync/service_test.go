package autosync

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/syncdex/internal/config"
	"github.com/kailas-cloud/syncdex/internal/domain"
	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/domain/event"
)

func mustEvent(t *testing.T, id string, action event.Action) event.Event {
	t.Helper()
	ev, err := event.New("library.Book", id, action)
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	return ev
}

func TestHandle_SaveWritesFullDocument(t *testing.T) {
	f := newFixture(t, syncCfg())

	err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionIndex))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.builder.fullCalls != 1 || f.builder.partialCalls != 0 {
		t.Errorf("expected one full build, got full=%d partial=%d", f.builder.fullCalls, f.builder.partialCalls)
	}
	if len(f.writer.calls) != 1 || f.writer.calls[0] != "index:books:1" {
		t.Errorf("unexpected writer calls: %v", f.writer.calls)
	}
	// guard consulted, then document remembered after the write
	want := []string{"should:books:library.Book:1", "remember:books:library.Book:1"}
	if len(f.guard.calls) != 2 || f.guard.calls[0] != want[0] || f.guard.calls[1] != want[1] {
		t.Errorf("unexpected guard calls: %v", f.guard.calls)
	}
}

func TestHandle_OutOfScopeSkipsWrite(t *testing.T) {
	f := newFixture(t, syncCfg())
	f.reg.scope = &mockScope{in: map[string]bool{}}

	err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionIndex))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 0 {
		t.Errorf("expected no writes, got %v", f.writer.calls)
	}
	if len(f.guard.calls) != 0 {
		t.Errorf("expected no guard calls, got %v", f.guard.calls)
	}
}

func TestHandle_DedupSuppressesSecondWrite(t *testing.T) {
	f := newFixture(t, syncCfg())
	f.guard.shouldWrite = false

	err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionUpdate))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 0 {
		t.Errorf("expected suppressed write, got %v", f.writer.calls)
	}
}

func TestHandle_ForceBypassesDedup(t *testing.T) {
	f := newFixture(t, syncCfg())
	f.guard.shouldWrite = false

	ev := mustEvent(t, "1", event.ActionUpdate).WithForce()
	if err := f.svc.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 1 {
		t.Fatalf("expected forced write, got %v", f.writer.calls)
	}
	for _, c := range f.guard.calls {
		if c == "should:books:library.Book:1" {
			t.Error("expected guard check to be skipped for forced event")
		}
	}
}

func TestHandle_DeleteEvictsCacheBeforeRemote(t *testing.T) {
	f := newFixture(t, syncCfg())

	err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionDelete))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.guard.calls) != 1 || f.guard.calls[0] != "forget:books:library.Book:1" {
		t.Fatalf("expected cache eviction, got %v", f.guard.calls)
	}
	if len(f.writer.calls) != 1 || f.writer.calls[0] != "delete:books:1" {
		t.Fatalf("expected remote delete, got %v", f.writer.calls)
	}
}

func TestHandle_DeleteOutOfScopeStillDeletes(t *testing.T) {
	f := newFixture(t, syncCfg())
	f.reg.scope = &mockScope{in: map[string]bool{}}

	err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionDelete))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 1 || f.writer.calls[0] != "delete:books:1" {
		t.Errorf("expected delete regardless of scope, got %v", f.writer.calls)
	}
}

func TestHandle_PartialStrategyUsesUpdate(t *testing.T) {
	cfg := syncCfg()
	cfg.UpdateStrategy = config.StrategyPartial
	f := newFixture(t, cfg)

	ev := mustEvent(t, "1", event.ActionUpdate).WithChangedFields("title")
	if err := f.svc.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.builder.partialCalls != 1 || f.builder.fullCalls != 0 {
		t.Errorf("expected partial build, got full=%d partial=%d", f.builder.fullCalls, f.builder.partialCalls)
	}
	if len(f.writer.calls) != 1 || f.writer.calls[0] != "update:books:1" {
		t.Errorf("expected doc update, got %v", f.writer.calls)
	}
}

func TestHandle_PartialWithoutChangedFieldsFallsBackToFull(t *testing.T) {
	cfg := syncCfg()
	cfg.UpdateStrategy = config.StrategyPartial
	f := newFixture(t, cfg)

	if err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionUpdate)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.builder.fullCalls != 1 {
		t.Errorf("expected full build fallback, got partial=%d", f.builder.partialCalls)
	}
}

func TestHandle_IndexActionAlwaysBuildsFullDocument(t *testing.T) {
	cfg := syncCfg()
	cfg.UpdateStrategy = config.StrategyPartial
	f := newFixture(t, cfg)

	// Changed fields only select the partial path on update events; an
	// index action reindexes the whole document.
	ev := mustEvent(t, "1", event.ActionIndex).WithChangedFields("title")
	if err := f.svc.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.builder.fullCalls != 1 || f.builder.partialCalls != 0 {
		t.Errorf("expected full build, got full=%d partial=%d", f.builder.fullCalls, f.builder.partialCalls)
	}
	if len(f.writer.calls) != 1 || f.writer.calls[0] != "index:books:1" {
		t.Errorf("expected full index write, got %v", f.writer.calls)
	}
}

func TestHandle_EmptyPartialDocumentSkipsWrite(t *testing.T) {
	cfg := syncCfg()
	cfg.UpdateStrategy = config.StrategyPartial
	f := newFixture(t, cfg)
	f.builder.doc = document.New("1", nil)

	ev := mustEvent(t, "1", event.ActionUpdate).WithChangedFields("unmapped")
	if err := f.svc.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 0 {
		t.Errorf("expected no write for empty partial, got %v", f.writer.calls)
	}
}

func TestHandle_DisabledTypeSkipsEntirely(t *testing.T) {
	cfg := syncCfg()
	cfg.DisabledTypes = []string{"library.Book"}
	f := newFixture(t, cfg)

	if err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionIndex)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 0 || len(f.guard.calls) != 0 {
		t.Errorf("expected disabled type to be ignored, writer=%v guard=%v", f.writer.calls, f.guard.calls)
	}
}

func TestPause_SuspendsAndResumes(t *testing.T) {
	f := newFixture(t, syncCfg())

	release := f.svc.Pause()
	if err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionIndex)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 0 {
		t.Fatalf("expected no writes while paused, got %v", f.writer.calls)
	}

	release()
	release() // double release must not unbalance the counter

	if err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionIndex)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 1 {
		t.Errorf("expected write after release, got %v", f.writer.calls)
	}
}

func TestHandle_TargetedEventUnknownIndex(t *testing.T) {
	f := newFixture(t, syncCfg())

	ev := mustEvent(t, "1", event.ActionIndex).WithIndex("movies")
	err := f.svc.Handle(context.Background(), ev)
	if !errors.Is(err, domain.ErrIndexNotConfigured) {
		t.Fatalf("expected ErrIndexNotConfigured, got %v", err)
	}
}

func TestHandle_TargetedEventLimitsFanOut(t *testing.T) {
	f := newFixture(t, syncCfg())
	f.reg.indexes = []string{"books", "archive"}
	f.reg.scope = &mockScope{in: map[string]bool{"1": true}}

	ev := mustEvent(t, "1", event.ActionIndex).WithIndex("archive")
	if err := f.svc.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 1 || f.writer.calls[0] != "index:archive:1" {
		t.Errorf("expected single targeted write, got %v", f.writer.calls)
	}
}

func TestHandle_WriteFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, syncCfg())
	f.writer.indexErr = errors.New("conn refused")

	if err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionIndex)); err != nil {
		t.Fatalf("expected swallowed failure, got %v", err)
	}
	for _, c := range f.guard.calls {
		if c == "remember:books:library.Book:1" {
			t.Error("failed write must not be remembered")
		}
	}
}

func TestHooks_FireBeforeWrite(t *testing.T) {
	f := newFixture(t, syncCfg())

	var seen []string
	f.svc.OnBeforeWrite("", func(_ context.Context, ev event.Event, _ document.Document) {
		seen = append(seen, "all:"+ev.ID())
	})
	f.svc.OnBeforeWrite("library.Book", func(_ context.Context, ev event.Event, _ document.Document) {
		seen = append(seen, "typed:"+ev.ID())
	})
	f.svc.OnBeforeWrite("other.Type", func(_ context.Context, _ event.Event, _ document.Document) {
		seen = append(seen, "wrong")
	})

	if err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionIndex)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 2 || seen[0] != "all:1" || seen[1] != "typed:1" {
		t.Errorf("unexpected hook firing: %v", seen)
	}
}

func TestHooks_FireBeforeDelete(t *testing.T) {
	f := newFixture(t, syncCfg())

	var seen []string
	f.svc.OnBeforeWrite("", func(_ context.Context, ev event.Event, doc document.Document) {
		seen = append(seen, string(ev.Action())+":"+doc.ID())
		if len(f.writer.calls) != 0 {
			t.Errorf("hook fired after remote call: %v", f.writer.calls)
		}
	})

	if err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionDelete)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(seen) != 1 || seen[0] != "delete:1" {
		t.Errorf("unexpected hook firing: %v", seen)
	}
	if len(f.writer.calls) != 1 || f.writer.calls[0] != "delete:books:1" {
		t.Errorf("expected remote delete, got %v", f.writer.calls)
	}
}

func TestHooks_PanicDoesNotBlockWrite(t *testing.T) {
	f := newFixture(t, syncCfg())

	f.svc.OnBeforeWrite("", func(_ context.Context, _ event.Event, _ document.Document) {
		panic("boom")
	})

	if err := f.svc.Handle(context.Background(), mustEvent(t, "1", event.ActionIndex)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.writer.calls) != 1 {
		t.Errorf("expected write despite panicking hook, got %v", f.writer.calls)
	}
}
