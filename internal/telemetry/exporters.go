package telemetry

import (
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newStdoutLogExporter() (sdklog.Exporter, error) {
	return stdoutlog.New()
}

func newStdoutTraceExporter() (sdktrace.SpanExporter, error) {
	return stdouttrace.New()
}
