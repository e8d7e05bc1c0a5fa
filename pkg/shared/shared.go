// Package shared provides common utility functions used across services.
package shared

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrRedisNotConfigured is returned when the Redis host or password is unset.
var ErrRedisNotConfigured = errors.New("REDIS_HOST and REDIS_PASSWORD must be set")

// GetEnvOrDefault returns the environment variable value or a default if not set.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool parses a boolean environment variable, falling back to the
// default when unset or unparsable.
func GetEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return b
}

// MaskDSN masks sensitive information in a DSN for logging.
func MaskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:20] + "***" + dsn[len(dsn)-20:]
	}
	return "***"
}

// RedisConfig describes how to reach the Redis cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	SSL      bool
}

// RedisConfigFromEnv reads REDIS_HOST, REDIS_PORT, REDIS_PASSWORD and REDIS_SSL.
func RedisConfigFromEnv() RedisConfig {
	return RedisConfig{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     GetEnvOrDefault("REDIS_PORT", "6380"),
		Password: os.Getenv("REDIS_PASSWORD"),
		SSL:      GetEnvBool("REDIS_SSL", true),
	}
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Options builds go-redis options, or ErrRedisNotConfigured when the host
// or password is missing.
func (c RedisConfig) Options() (*redis.Options, error) {
	if c.Host == "" || c.Password == "" {
		return nil, ErrRedisNotConfigured
	}
	opts := &redis.Options{
		Addr:     c.Addr(),
		Password: c.Password,
	}
	if c.SSL {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: c.Host,
		}
	}
	return opts, nil
}

// ConnectRedis creates and validates a Redis connection.
// Returns the client and nil on success, or nil and an error on failure.
func ConnectRedis(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}
