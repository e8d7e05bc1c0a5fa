package handlers

import (
	"context"
	"fmt"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/notifier"
)

type fakeStore struct {
	latest    map[string]telemetry.Record
	history   []telemetry.Record
	upsertErr error
	appendErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{latest: make(map[string]telemetry.Record)}
}

func (f *fakeStore) UpsertLatest(ctx context.Context, r *telemetry.Record) error {
	if err := r.RequireDeviceID(); err != nil {
		return err
	}
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.latest[r.DeviceID] = *r
	return nil
}

func (f *fakeStore) AppendHistory(ctx context.Context, r *telemetry.Record) (string, error) {
	if err := r.RequireDeviceID(); err != nil {
		return "", err
	}
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.history = append(f.history, *r)
	return fmt.Sprintf("h-%d", len(f.history)), nil
}

type fakeCache struct {
	values map[string]telemetry.Record
	err    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]telemetry.Record)}
}

func (f *fakeCache) Set(ctx context.Context, r *telemetry.Record) error {
	if err := r.RequireDeviceID(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.values[r.DeviceID] = *r
	return nil
}

type fakeNotifier struct {
	alerts []*notifier.Alert
	err    error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Notify(ctx context.Context, alert *notifier.Alert) error {
	f.alerts = append(f.alerts, alert)
	return f.err
}
