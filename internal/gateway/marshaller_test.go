package gateway

import (
	"encoding/json"
	"testing"

	"github.com/webitel/signal-matchmaker/internal/domain/event"
)

func TestMarshalOutboundIncludesKindAndPayload(t *testing.T) {
	data, err := marshalOutbound(event.NewPaired("conn-1", "conn-2", true))
	if err != nil {
		t.Fatalf("marshalOutbound: %v", err)
	}

	var decoded struct {
		Event   string              `json:"event"`
		SentAt  int64               `json:"sent_at"`
		Payload event.PairedPayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Event != "paired" {
		t.Fatalf("expected event=paired, got %q", decoded.Event)
	}
	if decoded.SentAt == 0 {
		t.Fatalf("expected a non-zero sent_at timestamp")
	}
	if decoded.Payload.Peer != "conn-2" || !decoded.Payload.Initiator {
		t.Fatalf("unexpected payload: %+v", decoded.Payload)
	}
}

func TestInboundMessageParsesSignal(t *testing.T) {
	raw := []byte(`{"type":"signal","peer":"conn-2","signal":{"sdp":"offer"}}`)
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != msgSignal || msg.Peer != "conn-2" {
		t.Fatalf("unexpected inbound message: %+v", msg)
	}
	if string(msg.Signal) != `{"sdp":"offer"}` {
		t.Fatalf("expected raw signal to pass through untouched, got %s", msg.Signal)
	}
}

func TestInboundMessageParsesReport(t *testing.T) {
	raw := []byte(`{"type":"report","peer":"conn-2","reason":"inappropriate"}`)
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != msgReport || msg.Reason != "inappropriate" {
		t.Fatalf("unexpected inbound message: %+v", msg)
	}
}
