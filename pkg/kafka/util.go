// Package kafka holds the Kafka settings and helpers the telemetry services
// share, so the handler's reader and the simulator's writer agree on them.
package kafka

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ParseBrokers splits a comma-separated broker list. Blank entries are
// dropped; an empty list yields nil.
func ParseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func requireParams(fields ...[2]string) error {
	var errs []error
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			errs = append(errs, errors.New(f[0]+" cannot be empty"))
		}
	}
	return errors.Join(errs...)
}

// ValidateConsumerParams checks that a consumer group reader can be built.
func ValidateConsumerParams(brokers, topic, groupID string) error {
	return requireParams(
		[2]string{"brokers", brokers},
		[2]string{"topic", topic},
		[2]string{"groupID", groupID},
	)
}

// ValidateProducerParams checks that a writer can be built.
func ValidateProducerParams(brokers, topic string) error {
	return requireParams(
		[2]string{"brokers", brokers},
		[2]string{"topic", topic},
	)
}

// ReaderConfigValues is the printable form of the reader tuning.
type ReaderConfigValues struct {
	MinBytes       int
	MaxBytes       int
	MaxWait        string
	CommitInterval string
}

// GetReaderConfigValues reports the tuning NewReaderConfig applies.
func GetReaderConfigValues() ReaderConfigValues {
	return ReaderConfigValues{
		MinBytes:       MinFetchBytes,
		MaxBytes:       MaxFetchBytes,
		MaxWait:        MaxPollWait.String(),
		CommitInterval: CommitInterval.String(),
	}
}

// LogReaderConfig logs the reader tuning once at start-up.
func LogReaderConfig() {
	v := GetReaderConfigValues()
	slog.Info("Kafka consumer configured",
		"min_bytes", v.MinBytes,
		"max_bytes", v.MaxBytes,
		"max_wait", v.MaxWait,
		"commit_interval", v.CommitInterval,
	)
}

// NewReaderConfig builds a consumer group reader config. Offsets are
// committed explicitly after processing; a group without committed offsets
// starts from the oldest message.
func NewReaderConfig(brokers []string, topic, groupID string) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       MinFetchBytes,
		MaxBytes:       MaxFetchBytes,
		MaxWait:        MaxPollWait,
		CommitInterval: CommitInterval,
		StartOffset:    kafka.FirstOffset,
	}
}

// NewWriter creates a writer that partitions by message key, so events for
// the same device stay on one partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: WriteTimeout,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// HeaderValue returns the value of the first header with the given key,
// compared case-insensitively.
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return string(h.Value)
		}
	}
	return ""
}
