package handlers

import (
	"context"
	"log/slog"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

// Logger writes one structured line per record. Absent fields print as N/A.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a logger handler; nil uses slog.Default.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Name() string { return "logger" }

func (l *Logger) Handle(ctx context.Context, r *telemetry.Record) error {
	l.logger.InfoContext(ctx, "Robot telemetry received",
		"device_id", r.DeviceIDOrNA(),
		"battery_level", r.BatteryOrNA(),
		"current_status", r.StatusOrNA(),
		"timestamp", r.TimestampOrNA(),
		"event_id", r.SourceEventID,
	)
	return nil
}
