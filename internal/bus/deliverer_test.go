package bus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/domain/registry"
)

var errBoom = errors.New("boom")

type fakeHub struct {
	local     map[string]bool
	delivered []event.Eventer
}

func newFakeHub(local ...string) *fakeHub {
	h := &fakeHub{local: make(map[string]bool)}
	for _, id := range local {
		h.local[id] = true
	}
	return h
}

func (h *fakeHub) Register(connID string) registry.Session { return nil }
func (h *fakeHub) Unregister(connID string)                {}
func (h *fakeHub) IsLocal(connID string) bool              { return h.local[connID] }
func (h *fakeHub) DeliverLocal(connID string, ev event.Eventer) bool {
	h.delivered = append(h.delivered, ev)
	return true
}
func (h *fakeHub) Shutdown() {}

type fakePublishDispatcher struct {
	published []event.Eventer
	err       error
}

func (d *fakePublishDispatcher) PublishDelivery(ctx context.Context, ev event.Eventer) error {
	if d.err != nil {
		return d.err
	}
	d.published = append(d.published, ev)
	return nil
}

func (d *fakePublishDispatcher) PublishBanInvalidation(ctx context.Context, ip string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDeliverLocalGoesThroughHub(t *testing.T) {
	hub := newFakeHub("conn-1")
	disp := &fakePublishDispatcher{}
	d := NewDeliverer(hub, disp, testLogger())

	ev := event.NewWaiting("conn-1")
	d.Deliver(context.Background(), ev)

	if len(hub.delivered) != 1 {
		t.Fatalf("expected 1 local delivery, got %d", len(hub.delivered))
	}
	if len(disp.published) != 0 {
		t.Fatalf("expected no cross-instance publish for a local target")
	}
}

func TestDeliverRemoteGoesThroughDispatcher(t *testing.T) {
	hub := newFakeHub()
	disp := &fakePublishDispatcher{}
	d := NewDeliverer(hub, disp, testLogger())

	ev := event.NewWaiting("conn-remote")
	d.Deliver(context.Background(), ev)

	if len(hub.delivered) != 0 {
		t.Fatalf("expected no local delivery for a non-local target")
	}
	if len(disp.published) != 1 {
		t.Fatalf("expected 1 cross-instance publish, got %d", len(disp.published))
	}
}

func TestDeliverRemotePublishFailureIsLoggedNotPanicked(t *testing.T) {
	hub := newFakeHub()
	disp := &fakePublishDispatcher{err: errBoom}
	d := NewDeliverer(hub, disp, testLogger())

	d.Deliver(context.Background(), event.NewWaiting("conn-remote"))
}
