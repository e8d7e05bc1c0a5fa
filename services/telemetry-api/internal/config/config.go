// Package config provides configuration parsing and validation for the telemetry-api.
package config

import (
	"fmt"
	"strconv"
)

// Config holds all configuration parameters for the telemetry-api.
type Config struct {
	HTTPPort    string
	PostgresDSN string
	// HistoryLimit caps how many history rows one request may return.
	HistoryLimit int
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if port, err := strconv.Atoi(c.HTTPPort); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("http-port must be a number between 1 and 65535")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history-limit must be at least 1")
	}
	return nil
}
