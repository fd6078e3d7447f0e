package metrics

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	logger "github.com/tigerroll/demorunner/pkg/batch/support/util/logger"
)

// loggingSpanProcessor writes every finished span to the debug log.
// It stands in for an exporter: spans never leave the process.
type loggingSpanProcessor struct{}

func newLoggingSpanProcessor() sdktrace.SpanProcessor {
	return loggingSpanProcessor{}
}

func (loggingSpanProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {}

func (loggingSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	logger.Debugf("Tracer: span '%s' ended after %s (status: %s %s).",
		s.Name(), s.EndTime().Sub(s.StartTime()), s.Status().Code, s.Status().Description)
}

func (loggingSpanProcessor) Shutdown(ctx context.Context) error   { return nil }
func (loggingSpanProcessor) ForceFlush(ctx context.Context) error { return nil }
