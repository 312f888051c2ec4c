// Package presence tracks, cluster-wide, which connection ids are currently
// admitted on some instance. The Connection Registry itself (spec §2.2) is
// process-local by design, but pop_valid (spec §4.1, invariant I4) needs to
// know whether a popped id is "present in the Connection Registry
// cluster-wide" — this package is the thin SSS-backed set that answers
// that question without requiring a fan-out RPC to every instance.
package presence

import (
	"context"

	"github.com/webitel/signal-matchmaker/internal/sss"
)

const setKey = "active_conns"

type Tracker struct {
	store sss.Store
}

func NewTracker(store sss.Store) *Tracker {
	return &Tracker{store: store}
}

// Mark records connID as admitted. Called by the Gateway at admission.
func (t *Tracker) Mark(ctx context.Context, connID string) error {
	return t.store.SetAdd(ctx, setKey, connID)
}

// Unmark removes connID. Called by the Gateway at teardown.
func (t *Tracker) Unmark(ctx context.Context, connID string) error {
	return t.store.SetRemove(ctx, setKey, connID)
}

// IsLive reports whether connID is admitted on any instance right now.
func (t *Tracker) IsLive(ctx context.Context, connID string) bool {
	ok, err := t.store.SetIsMember(ctx, setKey, connID)
	return err == nil && ok
}
