package handlers

import (
	"context"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-api/internal/database"
)

type fakeStatusLister struct {
	records []telemetry.Record
	err     error
}

func (f *fakeStatusLister) ListAll(ctx context.Context) ([]telemetry.Record, error) {
	return f.records, f.err
}

type fakeStateReader struct {
	states  []database.RobotState
	history []database.HistoryEntry
	err     error

	lastDeviceID string
	lastLimit    int
}

func (f *fakeStateReader) ListLatest(ctx context.Context) ([]database.RobotState, error) {
	return f.states, f.err
}

func (f *fakeStateReader) GetLatest(ctx context.Context, deviceID string) (*database.RobotState, error) {
	f.lastDeviceID = deviceID
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.states {
		if f.states[i].DeviceID == deviceID {
			return &f.states[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStateReader) ListHistory(ctx context.Context, deviceID string, limit int) ([]database.HistoryEntry, error) {
	f.lastDeviceID = deviceID
	f.lastLimit = limit
	return f.history, f.err
}
