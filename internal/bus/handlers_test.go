package bus

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
)

func TestWithRecoverSwallowsPanic(t *testing.T) {
	wrapped := withRecover(testLogger(), "boom-handler", func(msg *message.Message) error {
		panic("kaboom")
	})

	msg := message.NewMessage("1", []byte("payload"))
	if err := wrapped(msg); err != nil {
		t.Fatalf("expected panic to be recovered with nil error, got %v", err)
	}
}

func TestWithRecoverPassesThroughOnSuccess(t *testing.T) {
	var received *message.Message
	wrapped := withRecover(testLogger(), "ok-handler", func(msg *message.Message) error {
		received = msg
		return nil
	})

	msg := message.NewMessage("1", []byte("payload"))
	if err := wrapped(msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received != msg {
		t.Fatalf("expected underlying handler to run")
	}
}
