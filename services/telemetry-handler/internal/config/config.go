// Package config provides configuration parsing and validation for the telemetry-handler service.
package config

import (
	"fmt"
	"strings"
)

// Handler names accepted in Handlers.
const (
	HandlerLogger = "logger"
	HandlerAlert  = "alert"
	HandlerState  = "state"
	HandlerCache  = "cache"
)

// DefaultHandlers runs every handler.
const DefaultHandlers = "logger,alert,state,cache"

// Config holds all configuration parameters for the telemetry-handler service.
type Config struct {
	KafkaBrokers    string
	TelemetryTopic  string
	ConsumerGroupID string
	Handlers        string
	PostgresDSN     string
	HistoryEnabled  bool
	RunMigrations   bool

	AlertEmailFrom       string
	AlertEmailTo         string
	EmailProvider        string
	AlertSlackWebhookURL string
	AlertWebhookURL      string
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.TelemetryTopic == "" {
		return fmt.Errorf("telemetry-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	names, err := ParseHandlers(c.Handlers)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == HandlerState && c.PostgresDSN == "" {
			return fmt.Errorf("postgres-dsn cannot be empty when the state handler is enabled")
		}
	}
	if c.AlertEmailTo != "" && c.AlertEmailFrom == "" {
		return fmt.Errorf("alert-email-from cannot be empty when alert-email-to is set")
	}
	if c.AlertSlackWebhookURL != "" && !isHTTPURL(c.AlertSlackWebhookURL) {
		return fmt.Errorf("alert-slack-webhook-url must be an http(s) URL")
	}
	if c.AlertWebhookURL != "" && !isHTTPURL(c.AlertWebhookURL) {
		return fmt.Errorf("alert-webhook-url must be an http(s) URL")
	}
	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// EnabledHandlers returns the validated handler names in configured order.
func (c *Config) EnabledHandlers() []string {
	names, _ := ParseHandlers(c.Handlers)
	return names
}

// ParseHandlers splits a comma-separated handler list, rejecting unknown
// names and duplicates.
func ParseHandlers(value string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		switch name {
		case HandlerLogger, HandlerAlert, HandlerState, HandlerCache:
		default:
			return nil, fmt.Errorf("unknown handler %q (valid: %s)", name, DefaultHandlers)
		}
		if seen[name] {
			return nil, fmt.Errorf("handler %q listed twice", name)
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("handlers cannot be empty")
	}
	return names, nil
}
