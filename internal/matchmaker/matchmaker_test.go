package matchmaker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/webitel/signal-matchmaker/config"
	"github.com/webitel/signal-matchmaker/internal/conntable"
	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/domain/model"
	"github.com/webitel/signal-matchmaker/internal/pair"
	"github.com/webitel/signal-matchmaker/internal/presence"
	"github.com/webitel/signal-matchmaker/internal/queue"
	"github.com/webitel/signal-matchmaker/internal/sss"
	"go.opentelemetry.io/otel/trace/noop"
)

type recordingDeliverer struct {
	mu     sync.Mutex
	events map[string][]event.Eventer
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{events: make(map[string][]event.Eventer)}
}

func (d *recordingDeliverer) Deliver(_ context.Context, ev event.Eventer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events[ev.GetTargetConnID()] = append(d.events[ev.GetTargetConnID()], ev)
}

func (d *recordingDeliverer) last(connID string) event.Eventer {
	d.mu.Lock()
	defer d.mu.Unlock()
	evs := d.events[connID]
	if len(evs) == 0 {
		return nil
	}
	return evs[len(evs)-1]
}

func newTestMatchmaker(cooldown time.Duration) (*Matchmaker, *conntable.Table, *recordingDeliverer) {
	store := sss.NewMemoryStore()
	table := conntable.New()
	q := queue.NewManager(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p := pair.NewManager(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	pr := presence.NewTracker(store)
	deliverer := newRecordingDeliverer()
	cfg := &config.Config{NextCooldown: cooldown.Milliseconds()}
	mm := NewMatchmaker(table, q, p, pr, deliverer, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
	return mm, table, deliverer
}

func admit(table *conntable.Table, id string) *model.Connection {
	conn := model.NewConnection(id, "test", "127.0.0.1")
	table.Put(conn)
	return conn
}

func TestJoinWithNoOthersStaysWaiting(t *testing.T) {
	mm, table, deliverer := newTestMatchmaker(time.Second)
	ctx := context.Background()
	admit(table, "a")

	if err := mm.Join(ctx, "a"); err != nil {
		t.Fatalf("join: %v", err)
	}

	conn, _ := table.Get("a")
	if conn.State() != model.Waiting {
		t.Fatalf("expected waiting, got %s", conn.State())
	}
	ev := deliverer.last("a")
	if ev == nil || ev.GetKind() != event.Waiting {
		t.Fatalf("expected waiting event delivered to a")
	}
}

func TestJoinPairsTwoWaitingConnections(t *testing.T) {
	mm, table, deliverer := newTestMatchmaker(time.Second)
	ctx := context.Background()

	admit(table, "a")
	admit(table, "b")
	if err := mm.presence.Mark(ctx, "a"); err != nil {
		t.Fatalf("mark a: %v", err)
	}
	if err := mm.presence.Mark(ctx, "b"); err != nil {
		t.Fatalf("mark b: %v", err)
	}

	if err := mm.Join(ctx, "a"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := mm.Join(ctx, "b"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	connA, _ := table.Get("a")
	if connA.State() != model.Paired {
		t.Fatalf("expected a paired, got %s", connA.State())
	}

	evA := deliverer.last("a")
	pairedA, ok := evA.GetPayload().(event.PairedPayload)
	if !ok || pairedA.Peer != "b" || pairedA.Initiator {
		t.Fatalf("expected a paired with b as non-initiator, got %#v", evA.GetPayload())
	}

	evB := deliverer.last("b")
	pairedB, ok := evB.GetPayload().(event.PairedPayload)
	if !ok || pairedB.Peer != "a" || !pairedB.Initiator {
		t.Fatalf("expected b paired with a as initiator, got %#v", evB.GetPayload())
	}
}

func TestJoinWhilePairedIsNoop(t *testing.T) {
	mm, table, deliverer := newTestMatchmaker(time.Second)
	ctx := context.Background()
	admit(table, "a")
	admit(table, "b")
	_ = mm.presence.Mark(ctx, "a")
	_ = mm.presence.Mark(ctx, "b")

	_ = mm.Join(ctx, "a")
	_ = mm.Join(ctx, "b")

	before := len(deliverer.events["a"])

	if err := mm.Join(ctx, "a"); err != nil {
		t.Fatalf("duplicate join: %v", err)
	}

	connA, _ := table.Get("a")
	if connA.State() != model.Paired {
		t.Fatalf("expected a to remain paired, got %s", connA.State())
	}
	if len(deliverer.events["a"]) != before {
		t.Fatalf("expected duplicate join on a paired connection to emit nothing")
	}
	if partner, ok := mm.pair.Partner(ctx, "a"); !ok || partner != "b" {
		t.Fatalf("expected a to still be paired with b, got %q ok=%v", partner, ok)
	}
}

func TestNextIsRateLimited(t *testing.T) {
	mm, table, _ := newTestMatchmaker(time.Minute)
	ctx := context.Background()
	admit(table, "a")
	_ = mm.presence.Mark(ctx, "a")

	if err := mm.Join(ctx, "a"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := mm.Next(ctx, "a"); err != nil {
		t.Fatalf("first next: %v", err)
	}
	if err := mm.Next(ctx, "a"); err == nil {
		t.Fatalf("expected second immediate next to be rate limited")
	}
}

func TestLeaveDissolvesPairAndRequeuesPartner(t *testing.T) {
	mm, table, deliverer := newTestMatchmaker(time.Second)
	ctx := context.Background()
	admit(table, "a")
	admit(table, "b")
	_ = mm.presence.Mark(ctx, "a")
	_ = mm.presence.Mark(ctx, "b")

	_ = mm.Join(ctx, "a")
	_ = mm.Join(ctx, "b")

	if err := mm.Leave(ctx, "a"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	connA, _ := table.Get("a")
	if connA.State() != model.Idle {
		t.Fatalf("expected a idle, got %s", connA.State())
	}

	ev := deliverer.last("b")
	if ev == nil || ev.GetKind() != event.PartnerDisconnected {
		t.Fatalf("expected b to be told its partner disconnected, got %v", ev)
	}

	if _, ok := mm.pair.Partner(ctx, "b"); ok {
		t.Fatalf("expected b to be unpaired")
	}
}
