package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
)

// State writes the latest-state projection and, when enabled, appends to
// history. The two writes are attempted independently.
type State struct {
	store          StateStore
	historyEnabled bool
}

// NewState creates a state handler.
func NewState(store StateStore, historyEnabled bool) *State {
	return &State{store: store, historyEnabled: historyEnabled}
}

func (s *State) Name() string { return "state" }

func (s *State) Handle(ctx context.Context, r *telemetry.Record) error {
	if err := r.RequireDeviceID(); err != nil {
		return err
	}

	latestErr := s.store.UpsertLatest(ctx, r)
	if latestErr == nil {
		slog.Debug("Latest state written", "device_id", r.DeviceID)
	}

	var historyErr error
	if s.historyEnabled {
		var id string
		id, historyErr = s.store.AppendHistory(ctx, r)
		if historyErr == nil {
			slog.Debug("History appended", "device_id", r.DeviceID, "history_id", id)
		}
	}

	return errors.Join(latestErr, historyErr)
}
