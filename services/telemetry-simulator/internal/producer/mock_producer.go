package producer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/generator"
)

// MockProducer encodes events like the real producer but logs them instead
// of writing to Kafka.
type MockProducer struct {
	topic     string
	encoding  string
	published atomic.Int64
}

var _ Publisher = (*MockProducer)(nil)

// NewMock creates a mock producer.
func NewMock(topic, encoding string) *MockProducer {
	slog.Info("Using mock producer (no Kafka connection)", "topic", topic)
	return &MockProducer{topic: topic, encoding: encoding}
}

// Publish encodes the event and logs it.
func (p *MockProducer) Publish(ctx context.Context, ev *generator.Event) error {
	msg, err := Message(ev, p.encoding)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	p.published.Add(1)

	slog.Info("Mock publish (event logged, not sent to Kafka)",
		"topic", p.topic,
		"device_id", ev.DeviceID,
		"event_id", ev.ID,
		"shape", ev.Shape.String(),
		"battery_level", ev.Body["batteryLevel"],
		"current_status", ev.Body["currentStatus"],
		"bytes", len(msg.Value),
	)
	return nil
}

// Published returns how many events were logged.
func (p *MockProducer) Published() int64 {
	return p.published.Load()
}

// Close is a no-op for the mock producer.
func (p *MockProducer) Close() error {
	slog.Info("Mock producer closed", "topic", p.topic, "published", p.published.Load())
	return nil
}
