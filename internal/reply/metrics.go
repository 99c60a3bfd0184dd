package reply

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "epic-tech-ai/backend/internal/reply"

type metrics struct {
	replies    metric.Int64Counter
	failures   metric.Int64Counter
	completion metric.Float64Histogram
}

func newMetrics() *metrics {
	meter := otel.Meter(instrumentationName)

	// Instrument creation only fails on invalid names; the noop fallbacks keep Reply total.
	replies, err := meter.Int64Counter("reply_replies_total",
		metric.WithDescription("Replies produced, by source"))
	if err != nil {
		replies, _ = noopMeter().Int64Counter("reply_replies_total")
	}
	failures, err := meter.Int64Counter("reply_completion_failures_total",
		metric.WithDescription("External completion failures, by reason"))
	if err != nil {
		failures, _ = noopMeter().Int64Counter("reply_completion_failures_total")
	}
	completion, err := meter.Float64Histogram("reply_completion_duration_seconds",
		metric.WithDescription("External completion latency"),
		metric.WithUnit("s"))
	if err != nil {
		completion, _ = noopMeter().Float64Histogram("reply_completion_duration_seconds")
	}

	return &metrics{replies: replies, failures: failures, completion: completion}
}

func (m *metrics) recordReply(ctx context.Context, source Source) {
	m.replies.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(source))))
}

func (m *metrics) recordFailure(ctx context.Context, reason string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *metrics) recordCompletion(ctx context.Context, started time.Time, ok bool) {
	m.completion.Record(ctx, time.Since(started).Seconds(),
		metric.WithAttributes(attribute.Bool("ok", ok)))
}

func noopMeter() metric.Meter {
	return noop.NewMeterProvider().Meter(instrumentationName)
}
