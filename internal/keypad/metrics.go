package keypad

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments — initialized once via InitMetrics().
var (
	tokensCounter   metric.Int64Counter
	sessionsCounter metric.Int64Counter
	inputHistogram  metric.Float64Histogram
	errorCounter    metric.Int64Counter
	displayGauge    metric.Float64Gauge
)

// InitMetrics registers the keypad's OTel instruments.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	tokensCounter, err = meter.Int64Counter("calculator.tokens.total",
		metric.WithDescription("Keypad tokens received, by token class"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return fmt.Errorf("creating tokens counter: %w", err)
	}

	sessionsCounter, err = meter.Int64Counter("calculator.sessions.created",
		metric.WithDescription("Calculator sessions created"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return fmt.Errorf("creating sessions counter: %w", err)
	}

	inputHistogram, err = meter.Float64Histogram("calculator.input.duration",
		metric.WithDescription("Time spent applying one batch of keypad tokens in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating input histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Calculator errors, including division by zero"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	displayGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("Numeric value of the most recently rendered display"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating display gauge: %w", err)
	}

	return nil
}
