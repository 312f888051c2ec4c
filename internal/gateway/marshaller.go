package gateway

import (
	"encoding/json"
	"time"

	"github.com/webitel/signal-matchmaker/internal/domain/event"
)

// outboundEvent is the wire shape of every server-to-client message (spec
// §6.2), grounded on the teacher's WSEvent
// (internal/handler/marshaller/ws/marshaller.go) generic envelope.
type outboundEvent struct {
	Event   string `json:"event"`
	SentAt  int64  `json:"sent_at"`
	Payload any    `json:"payload,omitempty"`
}

// marshalOutbound prepares ev for WebSocket transmission.
func marshalOutbound(ev event.Eventer) ([]byte, error) {
	res := outboundEvent{
		Event:   string(ev.GetKind()),
		SentAt:  time.Now().UnixMilli(),
		Payload: ev.GetPayload(),
	}
	return json.Marshal(res)
}

// inboundMessage is the wire shape of every client-to-server message (spec
// §6.2): a flat envelope whose Type selects which of Peer/Signal/Reason
// apply.
type inboundMessage struct {
	Type   string          `json:"type"`
	Peer   string          `json:"peer,omitempty"`
	Signal json.RawMessage `json:"signal,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

const (
	msgJoin   = "join"
	msgNext   = "next"
	msgLeave  = "leave"
	msgSignal = "signal"
	msgReport = "report"
)
