package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/webitel/signal-matchmaker/internal/domain/event"
)

const (
	defaultMailboxSize = 64
	defaultSendTimeout  = 250 * time.Millisecond
)

// Hubber is the external API of the Connection Registry (spec §2.2):
// register/unregister a locally-admitted connection, and deliver to it if
// it is local. Grounded on internal/domain/registry/hub.go's Hubber.
type Hubber interface {
	Register(connID string) Session
	Unregister(connID string)
	IsLocal(connID string) bool
	DeliverLocal(connID string, ev event.Eventer) bool
	Shutdown()
}

// Hub implements Hubber with a lock-free sync.Map keyed by connection id and
// a background evictor for sessions that somehow outlive their gateway
// handler (defensive; the gateway always calls Unregister on teardown).
type Hub struct {
	sessions sync.Map // connID -> *session

	logger *slog.Logger

	evictionInterval time.Duration
	idleTimeout      time.Duration
	mailboxSize      int

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		logger:           logger,
		evictionInterval: time.Minute,
		idleTimeout:      10 * time.Minute,
		mailboxSize:      defaultMailboxSize,
		stopCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.runEvictor()
	return h
}

func (h *Hub) Register(connID string) Session {
	s := newSession(context.Background(), connID, h.mailboxSize)
	h.sessions.Store(connID, s)
	return s
}

func (h *Hub) Unregister(connID string) {
	if v, ok := h.sessions.LoadAndDelete(connID); ok {
		v.(*session).Close()
	}
}

func (h *Hub) IsLocal(connID string) bool {
	_, ok := h.sessions.Load(connID)
	return ok
}

// DeliverLocal pushes ev into connID's mailbox if it is owned by this
// instance. Returns false (not an error) when the connection is not local
// or not found at all — the caller falls back to cross-instance delivery,
// or treats "not found anywhere" as a stale id per spec §4.1 (I4).
func (h *Hub) DeliverLocal(connID string, ev event.Eventer) bool {
	v, ok := h.sessions.Load(connID)
	if !ok {
		return false
	}
	return v.(*session).Send(ev, defaultSendTimeout)
}

func (h *Hub) runEvictor() {
	ticker := time.NewTicker(h.evictionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.evictStale()
		}
	}
}

func (h *Hub) evictStale() {
	reaped := 0
	h.sessions.Range(func(key, value any) bool {
		s := value.(*session)
		if s.idleSince() > h.idleTimeout {
			s.Close()
			h.sessions.Delete(key)
			reaped++
		}
		return true
	})
	if reaped > 0 {
		h.logger.Warn("registry: reaped stale sessions", "count", reaped)
	}
}

// Shutdown closes every locally-owned session (spec §5 graceful shutdown).
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	h.sessions.Range(func(key, value any) bool {
		value.(*session).Close()
		h.sessions.Delete(key)
		return true
	})
}
