// Package handlers implements the independent reactions to one normalized
// telemetry record: logging, alerting, persisting state and caching.
package handlers

import (
	"context"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

// Handler reacts to a single normalized record.
type Handler interface {
	Name() string
	Handle(ctx context.Context, r *telemetry.Record) error
}

// StateStore persists latest state and history.
type StateStore interface {
	UpsertLatest(ctx context.Context, r *telemetry.Record) error
	AppendHistory(ctx context.Context, r *telemetry.Record) (string, error)
}

// StatusCache mirrors the latest record per device.
type StatusCache interface {
	Set(ctx context.Context, r *telemetry.Record) error
}
