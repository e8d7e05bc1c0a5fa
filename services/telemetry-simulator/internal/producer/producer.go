// Package producer publishes simulated telemetry events to Kafka.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	kafkautil "github.com/afikmenashe/robot-telemetry/pkg/kafka"
	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/generator"
)

// shapeHeader carries the envelope layout for debugging; consumers ignore it.
const shapeHeader = "envelope-shape"

// retryDelay is how long Publish waits for a freshly created topic.
var retryDelay = 2 * time.Second

// Publisher publishes generated events.
type Publisher interface {
	Publish(ctx context.Context, ev *generator.Event) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer encodes events and writes them to Kafka keyed by deviceId, so
// every event for one robot lands on the same partition.
type Producer struct {
	writer   messageWriter
	topic    string
	encoding string
}

var _ Publisher = (*Producer)(nil)

// New creates a Kafka producer. It tries to create the topic if missing.
func New(brokers, topic, encoding string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}
	if _, err := telemetry.ContentTypeFor(encoding); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)
	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
		"encoding", encoding,
	)

	createTopicIfNotExists(brokerList[0], topic)

	return &Producer{
		writer:   kafkautil.NewWriter(brokerList, topic),
		topic:    topic,
		encoding: encoding,
	}, nil
}

// newWithWriter is used by tests to capture messages.
func newWithWriter(w messageWriter, topic, encoding string) *Producer {
	return &Producer{writer: w, topic: topic, encoding: encoding}
}

// Message builds the Kafka message for an event.
func Message(ev *generator.Event, encoding string) (kafka.Message, error) {
	payload, contentType, err := telemetry.EncodePayload(ev.Envelope(), encoding)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ev.DeviceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: kafkautil.ContentTypeHeader, Value: []byte(contentType)},
			{Key: shapeHeader, Value: []byte(ev.Shape.String())},
		},
		Time: time.Now(),
	}, nil
}

// Publish encodes and writes one event, retrying once while a freshly
// created topic becomes available.
func (p *Producer) Publish(ctx context.Context, ev *generator.Event) error {
	msg, err := Message(ev, p.encoding)
	if err != nil {
		slog.Error("Failed to encode telemetry event", "device_id", ev.DeviceID, "error", err)
		return fmt.Errorf("failed to encode event: %w", err)
	}

	const maxRetries = 2
	var writeErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		writeErr = p.writer.WriteMessages(ctx, msg)
		if writeErr == nil {
			return nil
		}
		if errors.Is(writeErr, context.Canceled) {
			return context.Canceled
		}

		if isTopicNotReady(writeErr) && attempt < maxRetries {
			slog.Info("Topic not ready, retrying after delay",
				"device_id", ev.DeviceID,
				"topic", p.topic,
				"attempt", attempt,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}
		break
	}

	slog.Error("Failed to write message to Kafka",
		"device_id", ev.DeviceID,
		"topic", p.topic,
		"error", writeErr,
	)
	return fmt.Errorf("failed to write message to Kafka: %w", writeErr)
}

func isTopicNotReady(err error) bool {
	if errors.Is(err, kafka.UnknownTopicOrPartition) {
		return true
	}
	return strings.Contains(err.Error(), "does not exist")
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	return nil
}
