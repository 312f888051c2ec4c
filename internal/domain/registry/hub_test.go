package registry

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/webitel/signal-matchmaker/internal/domain/event"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterDeliverUnregister(t *testing.T) {
	h := NewHub(testLogger())
	defer h.Shutdown()

	session := h.Register("c1")
	if !h.IsLocal("c1") {
		t.Fatalf("expected c1 to be local after register")
	}

	if ok := h.DeliverLocal("c1", event.NewWaiting("c1")); !ok {
		t.Fatalf("expected delivery to succeed")
	}

	select {
	case ev := <-session.Recv():
		if ev.GetKind() != event.Waiting {
			t.Fatalf("expected waiting event, got %s", ev.GetKind())
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}

	h.Unregister("c1")
	if h.IsLocal("c1") {
		t.Fatalf("expected c1 to be gone after unregister")
	}
	if ok := h.DeliverLocal("c1", event.NewWaiting("c1")); ok {
		t.Fatalf("expected delivery to unregistered connection to fail")
	}
}

func TestDeliverLocalUnknownConnection(t *testing.T) {
	h := NewHub(testLogger())
	defer h.Shutdown()

	if ok := h.DeliverLocal("ghost", event.NewWaiting("ghost")); ok {
		t.Fatalf("expected delivery to unknown connection to report false")
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	h := NewHub(testLogger())
	session := h.Register("c1")
	h.Shutdown()

	select {
	case _, ok := <-session.Recv():
		if ok {
			t.Fatalf("expected mailbox to be closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for closed mailbox")
	}
}
