// Package event defines the outbound event vocabulary delivered to clients
// (spec §6.2) and the envelope used to fan them out across instances.
package event

import "encoding/json"

// Kind enumerates the fixed outbound event taxonomy. Unlike the teacher's
// multi-priority Eventer (MessageCreated/Connected with PriorityLow/Normal/
// High), this system's event vocabulary carries no priority concept (spec
// §6.2 defines a flat, fixed set) so Eventer drops that axis entirely.
type Kind string

const (
	Waiting             Kind = "waiting"
	Paired              Kind = "paired"
	Signal              Kind = "signal"
	PartnerDisconnected Kind = "partner-disconnected"
	Left                Kind = "left"
	Error               Kind = "error"
	Banned              Kind = "banned"
	ReportSubmitted     Kind = "report-submitted"
)

// Eventer is the contract for everything delivered to a connection, whether
// produced locally or received over the cross-instance bus.
type Eventer interface {
	GetKind() Kind
	// GetTargetConnID is the routing key: the connection this event must
	// reach, local or remote.
	GetTargetConnID() string
	GetPayload() any
}

var _ Eventer = (*Event)(nil)

// Event is the one concrete Eventer implementation; every constructor below
// just fills in Kind/Target/Payload. Grounded on the teacher's SystemEvent
// (internal/domain/event/event_system_v1.go), stripped of TraceID/Priority/
// Cached fields this system doesn't use.
type Event struct {
	Kind   Kind   `json:"kind"`
	Target string `json:"-"`
	Data   any    `json:"payload,omitempty"`
}

func (e *Event) GetKind() Kind           { return e.Kind }
func (e *Event) GetTargetConnID() string { return e.Target }
func (e *Event) GetPayload() any         { return e.Data }

func NewWaiting(target string) *Event { return &Event{Kind: Waiting, Target: target} }

type PairedPayload struct {
	Peer      string `json:"peer"`
	Initiator bool   `json:"initiator"`
}

func NewPaired(target, peer string, initiator bool) *Event {
	return &Event{Kind: Paired, Target: target, Data: PairedPayload{Peer: peer, Initiator: initiator}}
}

type SignalPayload struct {
	Peer   string          `json:"peer"`
	Signal json.RawMessage `json:"signal"`
}

func NewSignal(target, peer string, signal json.RawMessage) *Event {
	return &Event{Kind: Signal, Target: target, Data: SignalPayload{Peer: peer, Signal: signal}}
}

func NewPartnerDisconnected(target string) *Event {
	return &Event{Kind: PartnerDisconnected, Target: target}
}

func NewLeft(target string) *Event { return &Event{Kind: Left, Target: target} }

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewError(target, message string) *Event {
	return &Event{Kind: Error, Target: target, Data: ErrorPayload{Message: message}}
}

type BannedPayload struct {
	Reason string `json:"reason"`
}

func NewBanned(target, reason string) *Event {
	return &Event{Kind: Banned, Target: target, Data: BannedPayload{Reason: reason}}
}

type ReportSubmittedPayload struct {
	Success bool `json:"success"`
}

func NewReportSubmitted(target string) *Event {
	return &Event{Kind: ReportSubmitted, Target: target, Data: ReportSubmittedPayload{Success: true}}
}
