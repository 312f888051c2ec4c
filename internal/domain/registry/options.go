package registry

import "time"

// Option configures a Hub at construction. Grounded on
// internal/domain/registry/options.go.
type Option func(*Hub)

func WithEvictionInterval(d time.Duration) Option {
	return func(h *Hub) { h.evictionInterval = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) { h.idleTimeout = d }
}

func WithMailboxSize(size int) Option {
	return func(h *Hub) { h.mailboxSize = size }
}
