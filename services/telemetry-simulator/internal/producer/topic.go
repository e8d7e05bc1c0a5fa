package producer

import (
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	topicPartitions  = 3
	topicReplication = 1
)

// createTopicIfNotExists creates the topic when missing. It is best effort:
// failures are logged and the first write retries instead.
func createTopicIfNotExists(broker, topic string) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		slog.Warn("Could not connect to Kafka to check/create topic",
			"broker", broker,
			"topic", topic,
			"error", err,
		)
		return
	}
	defer conn.Close()

	if partitions, err := conn.ReadPartitions(topic); err == nil && len(partitions) > 0 {
		slog.Info("Topic already exists", "topic", topic, "partitions", len(partitions))
		return
	}

	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     topicPartitions,
		ReplicationFactor: topicReplication,
	}); err != nil {
		slog.Warn("Could not create topic (may need to be created manually)", "topic", topic, "error", err)
		return
	}
	slog.Info("Created topic", "topic", topic, "partitions", topicPartitions)

	// Topic creation is asynchronous.
	for i := 0; i < 5; i++ {
		time.Sleep(time.Second)
		if partitions, err := conn.ReadPartitions(topic); err == nil && len(partitions) > 0 {
			slog.Info("Topic is now available", "topic", topic, "partitions", len(partitions))
			return
		}
	}
	slog.Warn("Topic created but may not be fully available yet", "topic", topic)
}
