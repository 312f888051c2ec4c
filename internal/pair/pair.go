// Package pair implements the Pair Manager (spec §4.2): the symmetric
// connection-to-connection binding backing the PAIRED state.
package pair

import (
	"context"
	"log/slog"

	"github.com/webitel/signal-matchmaker/internal/sss"
)

const hashKey = "pairs"

type Manager struct {
	store  sss.Store
	logger *slog.Logger
}

func NewManager(store sss.Store, logger *slog.Logger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Bind writes both directions of the A<->B pair in one update. If either
// side was already bound, the new write wins — safe because the Matchmaker
// only calls Bind when it has just confirmed neither side is paired, and
// per-connection event serialization (spec §5) means the caller can't be
// racing another state transition of its own (spec §4.2).
func (m *Manager) Bind(ctx context.Context, a, b string) {
	if err := m.store.HashSetPair(ctx, hashKey, a, b, b, a); err != nil {
		m.logger.Error("pair: bind failed", "a", a, "b", b, "err", err)
	}
}

// Partner returns the current partner of connID, or "" if unpaired.
func (m *Manager) Partner(ctx context.Context, connID string) (string, bool) {
	v, ok, err := m.store.HashGet(ctx, hashKey, connID)
	if err != nil {
		m.logger.Error("pair: partner lookup failed", "conn_id", connID, "err", err)
		return "", false
	}
	return v, ok
}

// Dissolve looks up the missing side given either one, then atomically
// deletes both fields. Returns the other side of the pair it dissolved, or ok=false if it was
// already gone — tolerating a half-missing side lets disconnect and next
// share one code path (spec §4.2).
func (m *Manager) Dissolve(ctx context.Context, one string) (other string, ok bool) {
	other, ok = m.Partner(ctx, one)
	if !ok {
		return "", false
	}
	if err := m.store.HashDelPair(ctx, hashKey, one, other); err != nil {
		m.logger.Error("pair: dissolve failed", "one", one, "other", other, "err", err)
		return "", false
	}
	return other, true
}
