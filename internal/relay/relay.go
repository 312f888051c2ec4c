// Package relay implements the Signal Relay (spec §4.4): the blind pass-
// through for WebRTC signaling payloads between paired connections.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/webitel/signal-matchmaker/config"
	"github.com/webitel/signal-matchmaker/internal/bus"
	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/pair"
)

// Relay forwards a signal blob verbatim to the sender's current partner. It
// never inspects the blob's contents (spec §4.4: opaque to the server).
type Relay struct {
	pair      *pair.Manager
	deliverer bus.Deliverer
	maxBytes  int
	logger    *slog.Logger
}

func NewRelay(p *pair.Manager, deliverer bus.Deliverer, cfg *config.Config, logger *slog.Logger) *Relay {
	return &Relay{pair: p, deliverer: deliverer, maxBytes: cfg.MaxSignalBytes, logger: logger}
}

// Forward relays payload from connID to peer, provided peer is connID's
// current partner and payload is within the size cap (spec §4.4 edge
// cases). Both an oversized payload and a mismatched/stale peer are
// logged and dropped with no error surfaced to the sender (spec §7(b):
// validation failures on signal are silent, unlike report).
func (r *Relay) Forward(ctx context.Context, connID, peer string, payload json.RawMessage) error {
	if len(payload) > r.maxBytes {
		r.logger.Warn("relay: payload exceeds cap, dropping", "conn_id", connID, "bytes", len(payload), "max", r.maxBytes)
		return nil
	}

	current, ok := r.pair.Partner(ctx, connID)
	if !ok || current != peer {
		return nil
	}

	r.deliverer.Deliver(ctx, event.NewSignal(peer, connID, payload))
	return nil
}
