// Package model holds the plain data types shared across the matchmaking
// core: connection state, pair bookkeeping, and abuse-control records.
package model

import "time"

// State is the logical state of a Connection. Exactly one applies at any
// time (spec §3).
type State int8

const (
	Idle State = iota
	Waiting
	Paired
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Paired:
		return "paired"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is the process-local record of one admitted client session.
// Ownership is local to the admitting instance; only the id ever leaves the
// instance (as queue/pair entries in the SSS).
type Connection struct {
	ID           string
	Instance     string
	RemoteIP     string
	AdmittedAt   time.Time
	LastNextAt   time.Time
	state        State
}

func NewConnection(id, instance, remoteIP string) *Connection {
	return &Connection{
		ID:         id,
		Instance:   instance,
		RemoteIP:   remoteIP,
		AdmittedAt: time.Now(),
	}
}

func (c *Connection) State() State     { return c.state }
func (c *Connection) SetState(s State) { c.state = s }

// CooldownElapsed reports whether at least d has passed since the last
// next() call (spec §4.3 rate limit, §8 boundary at exactly 1000ms).
func (c *Connection) CooldownElapsed(d time.Duration) bool {
	if c.LastNextAt.IsZero() {
		return true
	}
	return time.Since(c.LastNextAt) >= d
}
