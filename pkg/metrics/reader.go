package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoMetrics means a service has never flushed or its snapshot expired.
var ErrNoMetrics = errors.New("no metrics found")

// Reader loads snapshots written by collectors.
type Reader struct {
	redis *redis.Client
}

func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// GetServiceMetrics loads one service's snapshot. A snapshot older than
// MetricsTTL is reported as unhealthy.
func (r *Reader) GetServiceMetrics(ctx context.Context, serviceName string) (*ServiceMetrics, error) {
	data, err := r.redis.Get(ctx, Key(serviceName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w for service: %s", ErrNoMetrics, serviceName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	return decodeSnapshot(data)
}

// GetAllServiceMetrics loads every stored snapshot, keyed by service name.
// Snapshots that fail to decode are skipped.
func (r *Reader) GetAllServiceMetrics(ctx context.Context) (map[string]*ServiceMetrics, error) {
	var keys []string
	iter := r.redis.Scan(ctx, 0, MetricsKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list metrics keys: %w", err)
	}

	result := make(map[string]*ServiceMetrics, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	for i, v := range values {
		serviceName := strings.TrimPrefix(keys[i], MetricsKeyPrefix)
		raw, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		m, err := decodeSnapshot([]byte(raw))
		if err != nil {
			slog.Warn("Failed to read metrics for service", "service", serviceName, "error", err)
			continue
		}
		result[serviceName] = m
	}
	return result, nil
}

func decodeSnapshot(data []byte) (*ServiceMetrics, error) {
	var m ServiceMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	if time.Since(m.LastUpdated) > MetricsTTL {
		m.Status = "unhealthy"
	}
	return &m, nil
}
