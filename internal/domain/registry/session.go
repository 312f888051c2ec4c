/*
Package registry is the process-local Connection Registry (spec §2.2):
every connection admitted by this instance gets one actor-style Session with
a buffered mailbox, so a slow client never blocks delivery to the rest of
the fleet. Grounded on the teacher's Hub/Cell/Connector split
(internal/domain/registry/{hub,cell,connect}.go), collapsed from a two-level
user→sessions structure into a single connection-id→Session map: this
system has no concept of one user multiplexing several devices, spec §3
makes the connection id itself the only routing key.
*/
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/webitel/signal-matchmaker/internal/domain/event"
)

// Session is the per-connection mailbox actor. Grounded on
// internal/domain/registry/connect.go's Connector (lifecycle, backpressure-
// aware Send, idempotent Close). The mailbox is a plain buffered channel
// that the gateway's write pump drains one event at a time.
type Session interface {
	ID() string
	Send(ev event.Eventer, timeout time.Duration) bool
	Recv() <-chan event.Eventer
	Close()
}

type session struct {
	id     string
	mailbox chan event.Eventer
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once

	mu               sync.Mutex
	lastActivity     time.Time
}

func newSession(parent context.Context, id string, bufferSize int) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{
		id:           id,
		mailbox:      make(chan event.Eventer, bufferSize),
		ctx:          ctx,
		cancel:       cancel,
		lastActivity: time.Now(),
	}
}

func (s *session) ID() string { return s.id }

func (s *session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *session) idleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// Send enqueues ev, waiting up to timeout for mailbox space (spec §5: "cheap"
// in-flight operations; the Matchmaker/Relay never block long on a single
// slow reader). Returns false if the session is closed or the mailbox stays
// full for the whole window.
func (s *session) Send(ev event.Eventer, timeout time.Duration) bool {
	if s.ctx.Err() != nil {
		return false
	}
	s.touch()
	select {
	case <-s.ctx.Done():
		return false
	case s.mailbox <- ev:
		return true
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	select {
	case <-s.ctx.Done():
		return false
	case s.mailbox <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *session) Recv() <-chan event.Eventer { return s.mailbox }

func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.mailbox)
	})
}
