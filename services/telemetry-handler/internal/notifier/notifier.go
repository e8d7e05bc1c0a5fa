// Package notifier delivers triggered robot alerts to operators.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/afikmenashe/robot-telemetry/pkg/shared"
	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

// Alert is a triggered alert for one robot.
type Alert struct {
	DeviceID string
	Subject  string
	Body     string
	Reasons  []string
}

// NewAlert builds the alert message for a record whose evaluation triggered.
func NewAlert(r *telemetry.Record, d telemetry.Decision) *Alert {
	deviceID := r.DeviceIDOrNA()
	reasons := strings.Join(d.Reasons, ", ")

	var body strings.Builder
	fmt.Fprintf(&body, "Robot %s needs attention: %s\n\n", deviceID, reasons)
	fmt.Fprintf(&body, "Battery level: %s\n", r.BatteryOrNA())
	fmt.Fprintf(&body, "Status: %s\n", r.StatusOrNA())
	fmt.Fprintf(&body, "Timestamp: %s\n", r.TimestampOrNA())

	return &Alert{
		DeviceID: deviceID,
		Subject:  fmt.Sprintf("Robot %s alert: %s", deviceID, reasons),
		Body:     body.String(),
		Reasons:  d.Reasons,
	}
}

// Notifier delivers an alert over one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert *Alert) error
}

// LogNotifier writes the alert to the log at critical level.
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(ctx context.Context, alert *Alert) error {
	slog.Log(ctx, shared.LevelCritical, "Robot alert triggered",
		"device_id", alert.DeviceID,
		"reasons", alert.Reasons,
	)
	return nil
}

// Fanout delivers each alert to every channel. A failing channel does not
// stop the others; failures are logged and joined into the returned error.
type Fanout struct {
	notifiers []Notifier
}

// NewFanout creates a fanout over the given channels.
func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

// Channels returns the channel names in delivery order.
func (f *Fanout) Channels() []string {
	names := make([]string, 0, len(f.notifiers))
	for _, n := range f.notifiers {
		names = append(names, n.Name())
	}
	return names
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Notify(ctx context.Context, alert *Alert) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			slog.Error("Alert delivery failed",
				"channel", n.Name(),
				"device_id", alert.DeviceID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
