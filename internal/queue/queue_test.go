package queue

import (
	"context"
	"log/slog"
	"io"
	"testing"

	"github.com/webitel/signal-matchmaker/internal/sss"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func alwaysLive(context.Context, string) bool { return true }

func TestEnqueueDedupes(t *testing.T) {
	store := sss.NewMemoryStore()
	m := NewManager(store, testLogger())
	ctx := context.Background()

	m.Enqueue(ctx, "a")
	m.Enqueue(ctx, "a")
	m.Enqueue(ctx, "b")

	first, ok := m.PopValid(ctx, "", alwaysLive)
	if !ok || first != "a" {
		t.Fatalf("expected a first, got %q ok=%v", first, ok)
	}
	second, ok := m.PopValid(ctx, "", alwaysLive)
	if !ok || second != "b" {
		t.Fatalf("expected b second (no duplicate a), got %q ok=%v", second, ok)
	}
	_, ok = m.PopValid(ctx, "", alwaysLive)
	if ok {
		t.Fatalf("expected queue to be empty")
	}
}

func TestPopValidSkipsSelfAndDead(t *testing.T) {
	store := sss.NewMemoryStore()
	m := NewManager(store, testLogger())
	ctx := context.Background()

	m.Enqueue(ctx, "self")
	m.Enqueue(ctx, "dead")
	m.Enqueue(ctx, "alive")

	isLive := func(_ context.Context, id string) bool { return id != "dead" }

	got, ok := m.PopValid(ctx, "self", isLive)
	if !ok || got != "alive" {
		t.Fatalf("expected alive, got %q ok=%v", got, ok)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := sss.NewMemoryStore()
	m := NewManager(store, testLogger())
	ctx := context.Background()

	m.Enqueue(ctx, "a")
	m.Remove(ctx, "a")
	m.Remove(ctx, "a")

	_, ok := m.PopValid(ctx, "", alwaysLive)
	if ok {
		t.Fatalf("expected empty queue after remove")
	}
}
