package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Logger is the process-wide logger. It discards everything until InitLogger
// runs so that packages can log from tests without setup.
var Logger = zap.NewNop()

func InitLogger() error {
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	Logger = l.With(zap.String("service", ServiceName()))
	return nil
}

func SyncLogger() {
	_ = Logger.Sync()
}

// LoggerWithTrace returns a child logger carrying trace_id and span_id from
// the active span in ctx. The context itself rides along as a field: the
// otelzap core picks it up so that exported log records carry the native
// trace and span IDs.
func LoggerWithTrace(ctx context.Context) *zap.Logger {
	span := trace.SpanContextFromContext(ctx)

	if !span.IsValid() {
		return Logger
	}

	return Logger.With(
		zap.Any("context", ctx),
		zap.String("trace_id", span.TraceID().String()),
		zap.String("span_id", span.SpanID().String()),
	)
}
