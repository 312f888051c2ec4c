package sss

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// breakerStore decorates a Store with a circuit breaker so a flapping SSS
// trips rather than spinning retries against a dead backend — a concrete
// mechanism for spec §7(a)'s "transient SSS — retried implicitly by the
// driver". Grounded on the teacher's declared-but-unwired
// github.com/sony/gobreaker dependency (see DESIGN.md).
type breakerStore struct {
	Store
	cb *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps store with a breaker that opens after 5 consecutive
// failures and probes again after 10s.
func NewBreakerStore(store Store) Store {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sss",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &breakerStore{Store: store, cb: cb}
}

func (b *breakerStore) guard(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

func (b *breakerStore) ListPushTail(ctx context.Context, key, member string) error {
	return b.guard(func() error { return b.Store.ListPushTail(ctx, key, member) })
}

func (b *breakerStore) ListRemoveAll(ctx context.Context, key, member string) error {
	return b.guard(func() error { return b.Store.ListRemoveAll(ctx, key, member) })
}

func (b *breakerStore) ListPopHead(ctx context.Context, key string) (string, bool, error) {
	var member string
	var ok bool
	err := b.guard(func() error {
		var err error
		member, ok, err = b.Store.ListPopHead(ctx, key)
		return err
	})
	return member, ok, err
}

func (b *breakerStore) HashSetPair(ctx context.Context, key, fieldA, valA, fieldB, valB string) error {
	return b.guard(func() error { return b.Store.HashSetPair(ctx, key, fieldA, valA, fieldB, valB) })
}

func (b *breakerStore) HashDelPair(ctx context.Context, key, fieldA, fieldB string) error {
	return b.guard(func() error { return b.Store.HashDelPair(ctx, key, fieldA, fieldB) })
}
