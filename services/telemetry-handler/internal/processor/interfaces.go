// Package processor dispatches telemetry events from the bus to the handlers.
package processor

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/consumer"
)

// MessageConsumer reads and commits Kafka messages.
type MessageConsumer interface {
	ReadMessage(ctx context.Context) (*consumer.RawEvent, *kafka.Message, error)
	CommitMessage(ctx context.Context, msg *kafka.Message) error
	Close() error
}

// MetricsRecorder records processing metrics.
type MetricsRecorder interface {
	RecordReceived()
	RecordProcessed(duration time.Duration)
	RecordError()
	IncrementCustom(name string)
}

// noopMetrics avoids nil checks when metrics are disabled.
type noopMetrics struct{}

func (noopMetrics) RecordReceived()               {}
func (noopMetrics) RecordProcessed(time.Duration) {}
func (noopMetrics) RecordError()                  {}
func (noopMetrics) IncrementCustom(string)        {}

// NoopMetrics returns a no-op metrics recorder.
func NoopMetrics() MetricsRecorder {
	return noopMetrics{}
}
