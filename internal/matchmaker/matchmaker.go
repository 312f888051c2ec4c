// Package matchmaker implements the Matchmaker (spec §4.3): the state
// machine driving a connection through idle -> waiting -> paired, and the
// join/next/leave/disconnect operations that move it along.
package matchmaker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/webitel/signal-matchmaker/config"
	"github.com/webitel/signal-matchmaker/internal/bus"
	"github.com/webitel/signal-matchmaker/internal/conntable"
	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/domain/model"
	"github.com/webitel/signal-matchmaker/internal/pair"
	"github.com/webitel/signal-matchmaker/internal/presence"
	"github.com/webitel/signal-matchmaker/internal/queue"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Matchmaker is the production implementation. Join/Next share a single
// match step, grounded on the teacher's ResolvePeers concurrent-pair
// pattern (internal/service/peer_enricher.go) for notifying both sides of a
// new pair without serializing the two deliveries.
type Matchmaker struct {
	table     *conntable.Table
	queue     *queue.Manager
	pair      *pair.Manager
	presence  *presence.Tracker
	deliverer bus.Deliverer
	cfg       *config.Config
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewMatchmaker(table *conntable.Table, q *queue.Manager, p *pair.Manager, pr *presence.Tracker, deliverer bus.Deliverer, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer) *Matchmaker {
	return &Matchmaker{table: table, queue: q, pair: p, presence: pr, deliverer: deliverer, cfg: cfg, logger: logger, tracer: tracer}
}

// span starts a child span named matchmaker.<op>, tagged with the
// connection id it acts on (SPEC_FULL.md's "spans around Matchmaker
// operations").
func (m *Matchmaker) span(ctx context.Context, op, connID string) (context.Context, trace.Span) {
	ctx, span := m.tracer.Start(ctx, "matchmaker."+op, trace.WithAttributes(attribute.String("conn_id", connID)))
	return ctx, span
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Join admits connID into the waiting pool (spec §4.3 "join"). A connID
// that already has a partner is a noop — no event is emitted, matching
// step 1's "client is already paired; do not emit anything" for a
// duplicate join (reconnect retry, double click). Any other state removes
// connID from the queue defensively, then enqueues and tries to match.
func (m *Matchmaker) Join(ctx context.Context, connID string) (err error) {
	ctx, span := m.span(ctx, "Join", connID)
	defer func() { finishSpan(span, err) }()

	conn, ok := m.table.Get(connID)
	if !ok {
		return fmt.Errorf("matchmaker: unknown connection %q", connID)
	}
	if _, paired := m.pair.Partner(ctx, connID); paired {
		return nil
	}

	m.queue.Remove(ctx, connID)
	conn.SetState(model.Waiting)
	m.queue.Enqueue(ctx, connID)
	m.matchStep(ctx, connID, conn)
	return nil
}

// Next dissolves the current pair (if any), requeues the former partner,
// and re-enters connID into the waiting pool — subject to the rate limit of
// one call per NextCooldown (spec §4.3 "next", §8 boundary).
func (m *Matchmaker) Next(ctx context.Context, connID string) (err error) {
	ctx, span := m.span(ctx, "Next", connID)
	defer func() { finishSpan(span, err) }()

	conn, ok := m.table.Get(connID)
	if !ok {
		return fmt.Errorf("matchmaker: unknown connection %q", connID)
	}
	if conn.State() != model.Paired && conn.State() != model.Waiting {
		return fmt.Errorf("matchmaker: next requires waiting or paired state, got %s", conn.State())
	}
	if !conn.CooldownElapsed(m.cfg.NextCooldownDuration()) {
		return fmt.Errorf("matchmaker: rate limited, retry after cooldown")
	}
	conn.LastNextAt = time.Now()

	if conn.State() == model.Paired {
		m.dissolveAndRequeuePartner(ctx, connID)
	}

	conn.SetState(model.Waiting)
	m.queue.Remove(ctx, connID)
	m.matchStep(ctx, connID, conn)
	return nil
}

// Leave takes connID out of matchmaking back to Idle without closing its
// connection (spec §4.3 "leave"). A dissolved partner is requeued.
func (m *Matchmaker) Leave(ctx context.Context, connID string) (err error) {
	ctx, span := m.span(ctx, "Leave", connID)
	defer func() { finishSpan(span, err) }()

	conn, ok := m.table.Get(connID)
	if !ok {
		return fmt.Errorf("matchmaker: unknown connection %q", connID)
	}

	switch conn.State() {
	case model.Paired:
		m.dissolveAndRequeuePartner(ctx, connID)
	case model.Waiting:
		m.queue.Remove(ctx, connID)
	}

	conn.SetState(model.Idle)
	m.deliverer.Deliver(ctx, event.NewLeft(connID))
	return nil
}

// OnDisconnect releases connID's matchmaking state when its transport
// closes (spec §4.3, §5 teardown). It does not touch the Connection
// Registry or presence set — that is the Gateway's responsibility, since
// only the Gateway knows the socket actually closed.
func (m *Matchmaker) OnDisconnect(ctx context.Context, connID string) {
	ctx, span := m.span(ctx, "OnDisconnect", connID)
	defer span.End()

	conn, ok := m.table.Get(connID)
	if !ok {
		return
	}
	switch conn.State() {
	case model.Paired:
		m.dissolveAndRequeuePartner(ctx, connID)
	case model.Waiting:
		m.queue.Remove(ctx, connID)
	}
}

func (m *Matchmaker) dissolveAndRequeuePartner(ctx context.Context, connID string) {
	partner, ok := m.pair.Dissolve(ctx, connID)
	if !ok {
		return
	}
	m.queue.Enqueue(ctx, partner)
	if pc, ok := m.table.Get(partner); ok {
		pc.SetState(model.Waiting)
	}
	m.deliverer.Deliver(ctx, event.NewPartnerDisconnected(partner))
}

// matchStep tries to pop a live partner for connID. On success it binds the
// pair and notifies both sides concurrently; on failure connID is enqueued
// at the tail, stays Waiting and is told so.
func (m *Matchmaker) matchStep(ctx context.Context, connID string, conn *model.Connection) {
	ctx, span := m.span(ctx, "matchStep", connID)
	defer span.End()

	partner, ok := m.queue.PopValid(ctx, connID, func(ctx context.Context, id string) bool {
		return m.presence.IsLive(ctx, id)
	})
	if !ok {
		m.queue.Enqueue(ctx, connID)
		m.deliverer.Deliver(ctx, event.NewWaiting(connID))
		return
	}

	m.pair.Bind(ctx, connID, partner)
	conn.SetState(model.Paired)
	if pc, ok := m.table.Get(partner); ok {
		pc.SetState(model.Paired)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.deliverer.Deliver(gctx, event.NewPaired(connID, partner, true))
		return nil
	})
	g.Go(func() error {
		m.deliverer.Deliver(gctx, event.NewPaired(partner, connID, false))
		return nil
	})
	_ = g.Wait()
}
