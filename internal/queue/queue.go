// Package queue implements the Queue Manager (spec §4.1): the global FIFO
// waiting pool layered on top of the Shared State Store.
package queue

import (
	"context"
	"log/slog"

	"github.com/webitel/signal-matchmaker/internal/sss"
)

const listKey = "queue"

// maxPopAttempts bounds pop_valid's retry loop so a corrupted store can
// never spin forever (spec §4.1).
const maxPopAttempts = 50

// Manager enforces the FIFO waiting-pool invariants I1-I4 (spec §3).
type Manager struct {
	store  sss.Store
	logger *slog.Logger
}

// NewManager's isLive/cluster-wide liveness check (I4) is supplied per-call
// by PopValid's caller, not wired in here — see internal/presence, which
// answers that question without requiring the Queue Manager to depend on
// the Connection Registry.
func NewManager(store sss.Store, logger *slog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Enqueue removes all prior occurrences of connID, then appends it to the
// tail (spec §4.1 "enqueue"). Errors are logged and swallowed — enqueue is
// best-effort, per spec.
func (m *Manager) Enqueue(ctx context.Context, connID string) {
	if err := m.store.ListRemoveAll(ctx, listKey, connID); err != nil {
		m.logger.Error("queue: dedup remove failed", "conn_id", connID, "err", err)
		return
	}
	if err := m.store.ListPushTail(ctx, listKey, connID); err != nil {
		m.logger.Error("queue: push failed", "conn_id", connID, "err", err)
	}
}

// Remove deletes every occurrence of connID from the queue. Idempotent.
func (m *Manager) Remove(ctx context.Context, connID string) {
	if err := m.store.ListRemoveAll(ctx, listKey, connID); err != nil {
		m.logger.Error("queue: remove failed", "conn_id", connID, "err", err)
	}
}

// PopValid repeatedly pops from the head, discarding the caller's own id and
// any id no longer present anywhere in the Connection Registry cluster-wide,
// until it finds a live candidate or exhausts maxPopAttempts (spec §4.1).
// isLive reports whether a connection id is still registered anywhere in
// the cluster (local hub lookup, or a cross-instance presence check).
func (m *Manager) PopValid(ctx context.Context, self string, isLive func(context.Context, string) bool) (string, bool) {
	for i := 0; i < maxPopAttempts; i++ {
		candidate, ok, err := m.store.ListPopHead(ctx, listKey)
		if err != nil {
			m.logger.Error("queue: pop failed", "err", err)
			return "", false
		}
		if !ok {
			return "", false
		}
		if candidate == self {
			continue
		}
		if !isLive(ctx, candidate) {
			continue
		}
		return candidate, true
	}
	m.logger.Warn("queue: pop_valid exhausted attempts", "attempts", maxPopAttempts)
	return "", false
}
