// Package telemetry wires structured logging and tracing (SPEC_FULL.md
// ambient stack). The teacher repo declares this stack in its go.mod
// (otelslog bridge, otel SDK) and calls ProvideLogger/ProvideSD from
// cmd/fx.go, but those provider bodies were not part of the retrieved
// pack — this package reconstructs them from the declared dependencies,
// using the stdout exporters so the service has working telemetry with no
// external collector required.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

const (
	ServiceName      = "signal-matchmaker"
	ServiceNamespace = "webitel"
)

// NewLoggerProvider builds the otel log provider backing the slog bridge.
// A stdout exporter is always attached; no setting selects another
// exporter.
func NewLoggerProvider(lc fx.Lifecycle) (*sdklog.LoggerProvider, error) {
	exporter, err := newStdoutLogExporter()
	if err != nil {
		return nil, err
	}
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// NewLogger bridges log/slog onto the otel log provider via otelslog, the
// bridge the teacher's go.mod already pins.
func NewLogger(provider *sdklog.LoggerProvider) *slog.Logger {
	handler := otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider))
	return slog.New(handler)
}

// NewTracerProvider backs the tracer NewTracer hands to the Matchmaker and
// the SSS adapter, per SPEC_FULL.md's ambient stack section.
func NewTracerProvider(lc fx.Lifecycle) (*sdktrace.TracerProvider, error) {
	exporter, err := newStdoutTraceExporter()
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

// NewTracer hands out the one tracer the Matchmaker and SSS adapter share
// for span creation, per SPEC_FULL.md's "spans around Matchmaker operations
// and SSS round trips" commitment.
func NewTracer(provider *sdktrace.TracerProvider) trace.Tracer {
	return provider.Tracer(ServiceName)
}
