package sss

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracingStore decorates a Store with a span around every SSS round trip,
// per SPEC_FULL.md's ambient stack commitment to tracing "SSS round trips".
// Grounded on the same wrap-the-interface shape as breakerStore.
type tracingStore struct {
	Store
	tracer trace.Tracer
}

// NewTracingStore wraps store so every call except Subscribe and Close
// produces a child span named sss.<method>, recording the error (if any) on
// the span before closing it; those two pass through untraced.
func NewTracingStore(store Store, tracer trace.Tracer) Store {
	return &tracingStore{Store: store, tracer: tracer}
}

func (t *tracingStore) start(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "sss."+name)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *tracingStore) ListPushTail(ctx context.Context, key, member string) error {
	ctx, span := t.start(ctx, "ListPushTail")
	err := t.Store.ListPushTail(ctx, key, member)
	finish(span, err)
	return err
}

func (t *tracingStore) ListRemoveAll(ctx context.Context, key, member string) error {
	ctx, span := t.start(ctx, "ListRemoveAll")
	err := t.Store.ListRemoveAll(ctx, key, member)
	finish(span, err)
	return err
}

func (t *tracingStore) ListPopHead(ctx context.Context, key string) (string, bool, error) {
	ctx, span := t.start(ctx, "ListPopHead")
	member, ok, err := t.Store.ListPopHead(ctx, key)
	finish(span, err)
	return member, ok, err
}

func (t *tracingStore) HashSetPair(ctx context.Context, key, fieldA, valA, fieldB, valB string) error {
	ctx, span := t.start(ctx, "HashSetPair")
	err := t.Store.HashSetPair(ctx, key, fieldA, valA, fieldB, valB)
	finish(span, err)
	return err
}

func (t *tracingStore) HashGet(ctx context.Context, key, field string) (string, bool, error) {
	ctx, span := t.start(ctx, "HashGet")
	value, ok, err := t.Store.HashGet(ctx, key, field)
	finish(span, err)
	return value, ok, err
}

func (t *tracingStore) HashDelPair(ctx context.Context, key, fieldA, fieldB string) error {
	ctx, span := t.start(ctx, "HashDelPair")
	err := t.Store.HashDelPair(ctx, key, fieldA, fieldB)
	finish(span, err)
	return err
}

func (t *tracingStore) SetAdd(ctx context.Context, key, member string) error {
	ctx, span := t.start(ctx, "SetAdd")
	err := t.Store.SetAdd(ctx, key, member)
	finish(span, err)
	return err
}

func (t *tracingStore) SetRemove(ctx context.Context, key, member string) error {
	ctx, span := t.start(ctx, "SetRemove")
	err := t.Store.SetRemove(ctx, key, member)
	finish(span, err)
	return err
}

func (t *tracingStore) SetIsMember(ctx context.Context, key, member string) (bool, error) {
	ctx, span := t.start(ctx, "SetIsMember")
	ok, err := t.Store.SetIsMember(ctx, key, member)
	finish(span, err)
	return ok, err
}

func (t *tracingStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	ctx, span := t.start(ctx, "SetMembers")
	members, err := t.Store.SetMembers(ctx, key)
	finish(span, err)
	return members, err
}

func (t *tracingStore) HashSetJSON(ctx context.Context, key string, value any) error {
	ctx, span := t.start(ctx, "HashSetJSON")
	err := t.Store.HashSetJSON(ctx, key, value)
	finish(span, err)
	return err
}

func (t *tracingStore) HashGetJSON(ctx context.Context, key string, dest any) (bool, error) {
	ctx, span := t.start(ctx, "HashGetJSON")
	ok, err := t.Store.HashGetJSON(ctx, key, dest)
	finish(span, err)
	return ok, err
}

func (t *tracingStore) HashDelete(ctx context.Context, key string) error {
	ctx, span := t.start(ctx, "HashDelete")
	err := t.Store.HashDelete(ctx, key)
	finish(span, err)
	return err
}

func (t *tracingStore) ListPushTTL(ctx context.Context, key, member string, ttl time.Duration) (int, error) {
	ctx, span := t.start(ctx, "ListPushTTL")
	length, err := t.Store.ListPushTTL(ctx, key, member, ttl)
	finish(span, err)
	return length, err
}

func (t *tracingStore) ListAll(ctx context.Context, key string) ([]string, error) {
	ctx, span := t.start(ctx, "ListAll")
	values, err := t.Store.ListAll(ctx, key)
	finish(span, err)
	return values, err
}

func (t *tracingStore) ListDelete(ctx context.Context, key string) error {
	ctx, span := t.start(ctx, "ListDelete")
	err := t.Store.ListDelete(ctx, key)
	finish(span, err)
	return err
}

func (t *tracingStore) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, span := t.start(ctx, "Publish")
	err := t.Store.Publish(ctx, channel, payload)
	finish(span, err)
	return err
}
