// Package cache mirrors the latest telemetry record per robot into Redis
// for fast dashboard reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/afikmenashe/robot-telemetry/pkg/shared"
	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

const (
	// KeyPrefix prefixes every robot status key.
	KeyPrefix = "robot_status:"

	storeName = "redis cache"
	scanCount = 100
)

// Key returns the cache key for a device.
func Key(deviceID string) string {
	return KeyPrefix + deviceID
}

// Cache writes and lists robot status records. A Cache constructed without
// a working connection stays unavailable for its whole lifetime; every
// operation then fails fast with *telemetry.StoreUnavailableError.
type Cache struct {
	client      *redis.Client
	unavailable error
}

// New connects using cfg. It never fails: a missing host or password, or a
// failed ping, yields an unavailable Cache that reports the reason.
func New(ctx context.Context, cfg shared.RedisConfig) *Cache {
	opts, err := cfg.Options()
	if err != nil {
		slog.Warn("Redis cache not configured", "error", err)
		return Unavailable(err)
	}

	client, err := shared.ConnectRedis(ctx, opts)
	if err != nil {
		slog.Error("Redis cache unavailable", "addr", cfg.Addr(), "error", err)
		return Unavailable(err)
	}

	slog.Info("Connected to Redis cache", "addr", cfg.Addr(), "tls", cfg.SSL)
	return &Cache{client: client}
}

// NewWithClient wraps an already connected client.
func NewWithClient(client *redis.Client) *Cache {
	if client == nil {
		return Unavailable(errors.New("nil client"))
	}
	return &Cache{client: client}
}

// Unavailable returns a Cache in the unavailable state.
func Unavailable(reason error) *Cache {
	return &Cache{unavailable: reason}
}

// Available reports whether the cache has a client.
func (c *Cache) Available() bool {
	return c != nil && c.client != nil
}

// Client exposes the underlying client for collaborators that share the
// connection, such as the metrics collector. It is nil when unavailable.
func (c *Cache) Client() *redis.Client {
	if !c.Available() {
		return nil
	}
	return c.client
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	if !c.Available() {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) unavailableErr() error {
	var reason error
	if c != nil {
		reason = c.unavailable
	}
	return &telemetry.StoreUnavailableError{Store: storeName, Err: reason}
}

// Set stores the JSON-serialized record under robot_status:<deviceId>
// without expiry, replacing any previous value.
func (c *Cache) Set(ctx context.Context, r *telemetry.Record) error {
	if err := r.RequireDeviceID(); err != nil {
		return err
	}
	if !c.Available() {
		return c.unavailableErr()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return &telemetry.StoreWriteError{Projection: "cache", DeviceID: r.DeviceID, Err: err}
	}

	if err := c.client.Set(ctx, Key(r.DeviceID), data, 0).Err(); err != nil {
		return classify(err, r.DeviceID)
	}
	return nil
}

// ListAll returns every cached record. The result is a best-effort snapshot:
// keys that vanish between SCAN and GET are skipped, and values that do not
// decode are skipped with a warning.
func (c *Cache) ListAll(ctx context.Context) ([]telemetry.Record, error) {
	if !c.Available() {
		return nil, c.unavailableErr()
	}

	records := []telemetry.Record{}
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			var redisErr redis.Error
			if errors.As(err, &redisErr) {
				slog.Warn("Skipping unreadable cache entry", "key", key, "error", err)
				continue
			}
			return nil, classify(err, strings.TrimPrefix(key, KeyPrefix))
		}

		var r telemetry.Record
		if err := json.Unmarshal(data, &r); err != nil {
			slog.Warn("Skipping undecodable cache entry", "key", key, "error", err)
			continue
		}
		records = append(records, r)
	}
	if err := iter.Err(); err != nil {
		return nil, classify(err, "")
	}

	return records, nil
}

// classify maps connection-level failures to StoreUnavailableError and
// anything the server rejected to StoreWriteError.
func classify(err error, deviceID string) error {
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		return &telemetry.StoreWriteError{Projection: "cache", DeviceID: deviceID, Err: err}
	}
	return &telemetry.StoreUnavailableError{Store: storeName, Err: fmt.Errorf("redis call failed: %w", err)}
}
