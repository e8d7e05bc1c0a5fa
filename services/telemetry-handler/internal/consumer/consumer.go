// Package consumer provides the Kafka consumer for the robot telemetry topic.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	kafkautil "github.com/afikmenashe/robot-telemetry/pkg/kafka"
)

// RawEvent is an undecoded telemetry event as delivered by the bus.
type RawEvent struct {
	Key         string
	Payload     []byte
	ContentType string
	Partition   int
	Offset      int64
}

// Consumer wraps a Kafka reader for the telemetry topic. Offsets are
// committed explicitly after processing.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a new Kafka consumer with the specified brokers, topic, and group ID.
func NewConsumer(brokers string, topic string, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	reader := kafka.NewReader(kafkautil.NewReaderConfig(brokerList, topic, groupID))
	kafkautil.LogReaderConfig()

	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadMessage fetches the next message without committing it.
func (c *Consumer) ReadMessage(ctx context.Context) (*RawEvent, *kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}
	return toRawEvent(&msg), &msg, nil
}

func toRawEvent(msg *kafka.Message) *RawEvent {
	return &RawEvent{
		Key:         string(msg.Key),
		Payload:     msg.Value,
		ContentType: kafkautil.HeaderValue(msg.Headers, kafkautil.ContentTypeHeader),
		Partition:   msg.Partition,
		Offset:      msg.Offset,
	}
}

// CommitMessage commits the offset for the given message.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	return nil
}
