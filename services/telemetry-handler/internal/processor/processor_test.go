package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/consumer"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/handlers"
)

type fixture struct {
	store    *fakeStore
	cache    *fakeCache
	notifier *recordingNotifier
	metrics  *fakeMetrics
	proc     *Processor
}

func newFixture(extra ...handlers.Handler) *fixture {
	f := &fixture{
		store:    newFakeStore(),
		cache:    newFakeCache(),
		notifier: &recordingNotifier{},
		metrics:  newFakeMetrics(),
	}
	hs := []handlers.Handler{
		handlers.NewLogger(nil),
		handlers.NewAlert(f.notifier),
		handlers.NewState(f.store, true),
		handlers.NewCache(f.cache),
	}
	hs = append(hs, extra...)
	f.proc = NewProcessor(&fakeConsumer{}, hs, f.metrics)
	return f
}

// captureLogs redirects the default logger to a JSON buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func countLevel(entries []map[string]any, level string) int {
	n := 0
	for _, e := range entries {
		if e["level"] == level {
			n++
		}
	}
	return n
}

func event(payload string) *consumer.RawEvent {
	return &consumer.RawEvent{Payload: []byte(payload)}
}

func TestHandleEvent_ScenarioR1(t *testing.T) {
	f := newFixture()

	out := f.proc.HandleEvent(context.Background(),
		event(`{"body": {"deviceId":"r1","batteryLevel":15,"currentStatus":"OK","ttimestamp":"t1"}}`))
	if out.Failed() {
		t.Fatalf("HandleEvent() failed: %+v", out)
	}

	latest, ok := f.store.latest["r1"]
	if !ok {
		t.Fatal("latest-state row for r1 missing")
	}
	if *latest.BatteryLevel != 15 || *latest.CurrentStatus != "OK" || *latest.Timestamp != "t1" {
		t.Errorf("latest-state = %+v", latest)
	}
	if len(f.store.history) != 1 {
		t.Errorf("history rows = %d, want 1", len(f.store.history))
	}
	if _, ok := f.cache.values["r1"]; !ok {
		t.Error("cache key robot_status:r1 missing")
	}
	if len(f.notifier.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(f.notifier.alerts))
	}
	if !reflect.DeepEqual(f.notifier.alerts[0].Reasons, []string{"battery below 20%"}) {
		t.Errorf("alert reasons = %v", f.notifier.alerts[0].Reasons)
	}
}

func TestHandleEvent_NestedAndFlatProduceSameWrites(t *testing.T) {
	body := `{"deviceId":"r7","batteryLevel":64,"currentStatus":"CLEANING","location":{"x":1}}`

	nested := newFixture()
	nested.proc.HandleEvent(context.Background(), event(`{"id":"e1","data":{"body":`+body+`}}`))
	flat := newFixture()
	flat.proc.HandleEvent(context.Background(), event(`{"id":"e1","body":`+body+`}`))

	if !reflect.DeepEqual(nested.store.latest, flat.store.latest) {
		t.Errorf("latest differs: nested %+v, flat %+v", nested.store.latest, flat.store.latest)
	}
	if !reflect.DeepEqual(nested.cache.values, flat.cache.values) {
		t.Errorf("cache differs: nested %+v, flat %+v", nested.cache.values, flat.cache.values)
	}
}

func TestHandleEvent_EmptyBody(t *testing.T) {
	buf := captureLogs(t)
	f := newFixture()

	out := f.proc.HandleEvent(context.Background(), event(`{"body": {}}`))

	if !errors.Is(out.NormalizeErr, telemetry.ErrEmptyBody) {
		t.Errorf("NormalizeErr = %v, want ErrEmptyBody", out.NormalizeErr)
	}
	if f.store.writes() != 0 || len(f.cache.values) != 0 || len(f.notifier.alerts) != 0 {
		t.Error("no writes or alerts expected for an empty body")
	}

	entries := logEntries(t, buf)
	if got := countLevel(entries, "WARN"); got != 1 {
		t.Errorf("warnings = %d, want exactly 1 (%v)", got, entries)
	}
	if got := countLevel(entries, "ERROR"); got != 0 {
		t.Errorf("errors = %d, want 0", got)
	}
	if f.metrics.custom[MetricEmptyBody] != 1 {
		t.Errorf("%s = %d, want 1", MetricEmptyBody, f.metrics.custom[MetricEmptyBody])
	}
}

func TestHandleEvent_DecodeError(t *testing.T) {
	buf := captureLogs(t)
	f := newFixture()

	out := f.proc.HandleEvent(context.Background(), event(`not json`))

	var decodeErr *telemetry.DecodeError
	if !errors.As(out.NormalizeErr, &decodeErr) {
		t.Errorf("NormalizeErr = %v, want DecodeError", out.NormalizeErr)
	}
	if f.store.writes() != 0 {
		t.Error("no writes expected for an undecodable event")
	}
	if countLevel(logEntries(t, buf), "ERROR") != 1 {
		t.Error("decode failure should be reported once at error level")
	}
	if f.metrics.errors != 1 || f.metrics.custom[MetricDecodeFailed] != 1 {
		t.Errorf("metrics = %+v", f.metrics)
	}
}

func TestHandleEvent_MissingDeviceID(t *testing.T) {
	buf := captureLogs(t)
	f := newFixture()

	out := f.proc.HandleEvent(context.Background(), event(`{"body":{"batteryLevel":50,"currentStatus":"OK"}}`))

	for _, name := range []string{"state", "cache"} {
		if !errors.Is(out.HandlerErrs[name], telemetry.ErrMissingKey) {
			t.Errorf("%s error = %v, want ErrMissingKey", name, out.HandlerErrs[name])
		}
	}
	if _, failed := out.HandlerErrs["logger"]; failed {
		t.Error("logger should not fail without deviceId")
	}
	if f.store.writes() != 0 || len(f.cache.values) != 0 {
		t.Error("no writes expected without deviceId")
	}

	var loggedNA bool
	for _, e := range logEntries(t, buf) {
		if e["msg"] == "Robot telemetry received" && e["device_id"] == "N/A" {
			loggedNA = true
		}
	}
	if !loggedNA {
		t.Error("logger should print N/A for the missing deviceId")
	}
	if f.metrics.custom[MetricMissingKey] != 2 {
		t.Errorf("%s = %d, want 2", MetricMissingKey, f.metrics.custom[MetricMissingKey])
	}
}

func TestHandleEvent_CacheUnavailableDoesNotBlockState(t *testing.T) {
	f := newFixture()
	f.cache.unavailable = true

	out := f.proc.HandleEvent(context.Background(), event(`{"body":{"deviceId":"r2","batteryLevel":90}}`))

	var unavailable *telemetry.StoreUnavailableError
	if !errors.As(out.HandlerErrs["cache"], &unavailable) {
		t.Errorf("cache error = %v, want StoreUnavailableError", out.HandlerErrs["cache"])
	}
	if _, ok := f.store.latest["r2"]; !ok {
		t.Error("state should be written even when the cache is unavailable")
	}
	if f.metrics.custom["handler_cache_failed"] != 1 {
		t.Errorf("handler_cache_failed = %d, want 1", f.metrics.custom["handler_cache_failed"])
	}
}

func TestHandleEvent_PanicIsContained(t *testing.T) {
	f := newFixture(panicHandler{})

	out := f.proc.HandleEvent(context.Background(), event(`{"body":{"deviceId":"r3"}}`))

	err := out.HandlerErrs["panicky"]
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("panicky error = %v, want a panic error", err)
	}
	if _, ok := f.store.latest["r3"]; !ok {
		t.Error("other handlers should still run")
	}
}

func TestHandleEvent_HandlerOrderAndIndependence(t *testing.T) {
	f := newFixture()
	f.proc.handlers = append([]handlers.Handler{panicHandler{}}, f.proc.handlers...)

	f.proc.HandleEvent(context.Background(), event(`{"body":{"deviceId":"r4","currentStatus":"error"}}`))

	if len(f.notifier.alerts) != 1 {
		t.Errorf("alerts = %d, want 1 even after an earlier handler panicked", len(f.notifier.alerts))
	}
	if _, ok := f.cache.values["r4"]; !ok {
		t.Error("cache should be written even after an earlier handler panicked")
	}
}

func TestProcessEvents_CommitsEveryEvent(t *testing.T) {
	captureLogs(t)
	c := &fakeConsumer{}
	c.AddEvent(`{"body":{"deviceId":"r1","batteryLevel":15}}`)
	c.AddEvent(`{"body":{}}`)
	c.AddEvent(`garbage`)
	c.AddEvent(`{"body":{"batteryLevel":1}}`)
	c.readErr = errors.New("transient broker error")

	store := newFakeStore()
	m := newFakeMetrics()
	p := NewProcessor(c, []handlers.Handler{handlers.NewState(store, false)}, m)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := p.ProcessEvents(ctx); err != nil {
		t.Fatalf("ProcessEvents() error = %v", err)
	}

	if !reflect.DeepEqual(c.committed, []int64{0, 1, 2, 3}) {
		t.Errorf("committed offsets = %v, want [0 1 2 3]", c.committed)
	}
	if m.received != 4 {
		t.Errorf("received = %d, want 4", m.received)
	}
	if m.errors != 3 {
		t.Errorf("errors = %d, want 3", m.errors)
	}
	if len(store.latest) != 1 {
		t.Errorf("latest rows = %d, want 1", len(store.latest))
	}
}

func TestProcessEvents_CommitErrorDoesNotStop(t *testing.T) {
	captureLogs(t)
	c := &fakeConsumer{commitErr: errors.New("commit failed")}
	c.AddEvent(`{"body":{"deviceId":"r1"}}`)
	c.AddEvent(`{"body":{"deviceId":"r2"}}`)

	p := NewProcessor(c, []handlers.Handler{handlers.NewLogger(nil)}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.ProcessEvents(ctx)

	if c.commitCalls != 2 {
		t.Errorf("commit calls = %d, want 2", c.commitCalls)
	}
}

func TestNewMetricsAdapter_Nil(t *testing.T) {
	m := NewMetricsAdapter(nil)
	if _, ok := m.(noopMetrics); !ok {
		t.Errorf("NewMetricsAdapter(nil) = %T, want noopMetrics", m)
	}
	m.RecordReceived()
	m.RecordProcessed(time.Millisecond)
	m.RecordError()
	m.IncrementCustom("x")
}
