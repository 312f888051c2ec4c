package event

import "encoding/json"

// Envelope is the wire format published to the cross-instance bus so any
// instance can pick up an event addressed to a connection it might own.
// Grounded on the teacher's eventDispatcher.Publish
// (internal/adapter/pubsub/dispatcher.go), which marshals an Eventer to
// JSON before handing it to the message.Publisher.
type Envelope struct {
	TargetConnID string          `json:"target_conn_id"`
	Kind         Kind            `json:"kind"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals an Eventer into its wire Envelope.
func Encode(ev Eventer) (Envelope, error) {
	payload, err := json.Marshal(ev.GetPayload())
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		TargetConnID: ev.GetTargetConnID(),
		Kind:         ev.GetKind(),
		Payload:      payload,
	}, nil
}

// Decode rebuilds a generic Eventer from a wire Envelope. The payload stays
// as raw JSON; callers that need a typed payload unmarshal it themselves,
// mirroring the opaque, pass-through handling spec §4.4 requires for
// signal payloads.
func (e Envelope) Decode() *Event {
	var data any
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &data)
	}
	return &Event{Kind: e.Kind, Target: e.TargetConnID, Data: data}
}
