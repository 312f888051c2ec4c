package presence

import (
	"context"
	"testing"

	"github.com/webitel/signal-matchmaker/internal/sss"
)

func TestMarkUnmark(t *testing.T) {
	store := sss.NewMemoryStore()
	tr := NewTracker(store)
	ctx := context.Background()

	if tr.IsLive(ctx, "a") {
		t.Fatalf("expected a not live before mark")
	}

	if err := tr.Mark(ctx, "a"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !tr.IsLive(ctx, "a") {
		t.Fatalf("expected a live after mark")
	}

	if err := tr.Unmark(ctx, "a"); err != nil {
		t.Fatalf("unmark: %v", err)
	}
	if tr.IsLive(ctx, "a") {
		t.Fatalf("expected a not live after unmark")
	}
}
