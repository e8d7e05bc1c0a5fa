package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/consumer"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/notifier"
)

// fakeConsumer is a test fake for MessageConsumer.
type fakeConsumer struct {
	events      []*consumer.RawEvent
	readIndex   int
	readErr     error
	commitErr   error
	commitCalls int
	committed   []int64
}

func (f *fakeConsumer) AddEvent(payload string) {
	f.events = append(f.events, &consumer.RawEvent{
		Payload: []byte(payload),
		Offset:  int64(len(f.events)),
	})
}

func (f *fakeConsumer) ReadMessage(ctx context.Context) (*consumer.RawEvent, *kafka.Message, error) {
	if f.readErr != nil {
		err := f.readErr
		f.readErr = nil
		return nil, nil, err
	}
	if f.readIndex >= len(f.events) {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	ev := f.events[f.readIndex]
	f.readIndex++
	return ev, &kafka.Message{Topic: "robot.telemetry", Offset: ev.Offset, Value: ev.Payload}, nil
}

func (f *fakeConsumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	f.commitCalls++
	f.committed = append(f.committed, msg.Offset)
	return f.commitErr
}

func (f *fakeConsumer) Close() error { return nil }

// fakeMetrics records calls for assertions.
type fakeMetrics struct {
	mu        sync.Mutex
	received  int
	processed int
	errors    int
	custom    map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{custom: make(map[string]int)}
}

func (f *fakeMetrics) RecordReceived()               { f.mu.Lock(); f.received++; f.mu.Unlock() }
func (f *fakeMetrics) RecordProcessed(time.Duration) { f.mu.Lock(); f.processed++; f.mu.Unlock() }
func (f *fakeMetrics) RecordError()                  { f.mu.Lock(); f.errors++; f.mu.Unlock() }
func (f *fakeMetrics) IncrementCustom(name string)   { f.mu.Lock(); f.custom[name]++; f.mu.Unlock() }

// fakeStore is an in-memory StateStore with upsert and append semantics.
type fakeStore struct {
	latest  map[string]telemetry.Record
	history map[string]telemetry.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		latest:  make(map[string]telemetry.Record),
		history: make(map[string]telemetry.Record),
	}
}

func (f *fakeStore) UpsertLatest(ctx context.Context, r *telemetry.Record) error {
	if err := r.RequireDeviceID(); err != nil {
		return err
	}
	f.latest[r.DeviceID] = *r
	return nil
}

func (f *fakeStore) AppendHistory(ctx context.Context, r *telemetry.Record) (string, error) {
	if err := r.RequireDeviceID(); err != nil {
		return "", err
	}
	id := fmt.Sprintf("h-%d", len(f.history)+1)
	f.history[id] = *r
	return id, nil
}

func (f *fakeStore) writes() int { return len(f.latest) + len(f.history) }

// fakeCache is an in-memory StatusCache, optionally unavailable.
type fakeCache struct {
	values      map[string]telemetry.Record
	unavailable bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]telemetry.Record)}
}

func (f *fakeCache) Set(ctx context.Context, r *telemetry.Record) error {
	if err := r.RequireDeviceID(); err != nil {
		return err
	}
	if f.unavailable {
		return &telemetry.StoreUnavailableError{Store: "redis cache"}
	}
	f.values[r.DeviceID] = *r
	return nil
}

// recordingNotifier captures alerts.
type recordingNotifier struct {
	alerts []*notifier.Alert
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(ctx context.Context, a *notifier.Alert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

// panicHandler always panics.
type panicHandler struct{}

func (panicHandler) Name() string { return "panicky" }

func (panicHandler) Handle(context.Context, *telemetry.Record) error {
	panic("boom")
}
