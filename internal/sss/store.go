// Package sss adapts the Shared State Store (spec §2.1, §6.4): an external
// key/value service providing an ordered list with atomic push-tail/pop-head,
// a hash with per-field set/get/delete, a set with add/remove/membership,
// and a publish/subscribe bus. The rest of the core (queue, pair, abuse)
// depends only on the Store interface, never on Redis directly.
package sss

import (
	"context"
	"time"
)

// Subscription is a live pub/sub subscription (spec §2.1's "publish/
// subscribe bus"). Messages arrive on Channel(); Close releases the
// underlying connection.
type Subscription interface {
	Channel() <-chan []byte
	Close() error
}

// Store is the minimal set of SSS primitives the core needs. Every method
// takes a context because every SSS round trip is a suspension point (spec
// §5).
type Store interface {
	// Ordered list (Queue Manager, §4.1).
	ListPushTail(ctx context.Context, key, member string) error
	ListRemoveAll(ctx context.Context, key, member string) error
	ListPopHead(ctx context.Context, key string) (member string, ok bool, err error)

	// Pair hash (Pair Manager, §4.2). HashSetPair/HashDelPair write or
	// delete both directions of the symmetric mapping in one round trip so
	// P1/P3 (§3) never observe a half-written pair.
	HashSetPair(ctx context.Context, key, fieldA, valA, fieldB, valB string) error
	HashGet(ctx context.Context, key, field string) (value string, ok bool, err error)
	HashDelPair(ctx context.Context, key, fieldA, fieldB string) error

	// Set membership (Ban Set, §3/§4.5).
	SetAdd(ctx context.Context, key, member string) error
	SetRemove(ctx context.Context, key, member string) error
	SetIsMember(ctx context.Context, key, member string) (bool, error)
	SetMembers(ctx context.Context, key string) ([]string, error)

	// Per-field JSON record (ban_details:<ip>, §6.4).
	HashSetJSON(ctx context.Context, key string, value any) error
	HashGetJSON(ctx context.Context, key string, dest any) (bool, error)
	HashDelete(ctx context.Context, key string) error

	// Report log with TTL (reports:<ip>, §3/§6.4).
	ListPushTTL(ctx context.Context, key, member string, ttl time.Duration) (length int, err error)
	ListAll(ctx context.Context, key string) ([]string, error)
	ListDelete(ctx context.Context, key string) error

	// Publish/subscribe bus (cross-instance delivery, ban invalidation).
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)

	Close() error
}
