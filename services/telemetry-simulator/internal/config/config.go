// Package config provides configuration parsing and validation for the
// telemetry-simulator, including the YAML fleet definition.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

// Envelope shape modes.
const (
	ShapeNested = "nested"
	ShapeFlat   = "flat"
	ShapeMixed  = "mixed"
)

// Config holds all configuration parameters for the telemetry-simulator.
type Config struct {
	KafkaBrokers string
	Topic        string
	FleetFile    string
	Schedule     string
	Duration     time.Duration
	BurstSize    int
	Seed         int64
	Shape        string
	Encoding     string
}

// Validate checks that all required configuration fields are set and have valid values.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if c.BurstSize < 0 {
		return fmt.Errorf("burst cannot be negative")
	}
	if c.BurstSize == 0 {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
		if c.Duration <= 0 {
			return fmt.Errorf("duration must be > 0 when not in burst mode")
		}
	}
	switch strings.ToLower(c.Shape) {
	case ShapeNested, ShapeFlat, ShapeMixed:
	default:
		return fmt.Errorf("shape must be one of nested, flat, mixed, got %q", c.Shape)
	}
	if _, err := telemetry.ContentTypeFor(c.Encoding); err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}
	return nil
}
