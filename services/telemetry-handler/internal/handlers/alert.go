package handlers

import (
	"context"
	"log/slog"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/notifier"
)

// Alert evaluates the alert rules and notifies when any rule fires.
// Delivery problems are logged by the notifier and never fail the event.
type Alert struct {
	notifier notifier.Notifier
	// OnTriggered, if set, is called once per triggered record.
	OnTriggered func(d telemetry.Decision)
	// OnDeliveryFailed, if set, is called when at least one channel failed.
	OnDeliveryFailed func(err error)
}

// NewAlert creates an alert handler delivering through n.
func NewAlert(n notifier.Notifier) *Alert {
	if n == nil {
		n = notifier.LogNotifier{}
	}
	return &Alert{notifier: n}
}

func (a *Alert) Name() string { return "alert" }

func (a *Alert) Handle(ctx context.Context, r *telemetry.Record) error {
	d := telemetry.Evaluate(r)
	if !d.Triggered {
		return nil
	}
	if a.OnTriggered != nil {
		a.OnTriggered(d)
	}
	if err := a.notifier.Notify(ctx, notifier.NewAlert(r, d)); err != nil {
		slog.Debug("Alert delivery incomplete", "device_id", r.DeviceIDOrNA(), "error", err)
		if a.OnDeliveryFailed != nil {
			a.OnDeliveryFailed(err)
		}
	}
	return nil
}
