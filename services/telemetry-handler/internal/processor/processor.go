package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/consumer"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-handler/internal/handlers"
)

// Custom metric names.
const (
	MetricEmptyBody    = "events_empty_body"
	MetricDecodeFailed = "events_decode_failed"
	MetricMissingKey   = "events_missing_device_id"
)

// Outcome summarizes how one event was handled.
type Outcome struct {
	Record *telemetry.Record
	// NormalizeErr is set when the event never reached the handlers.
	NormalizeErr error
	// HandlerErrs maps handler name to its failure.
	HandlerErrs map[string]error
}

// Failed reports whether any step failed.
func (o Outcome) Failed() bool {
	return o.NormalizeErr != nil || len(o.HandlerErrs) > 0
}

// Processor normalizes each event once and runs every handler on the result.
// Handlers are independent: one failing never prevents the others.
type Processor struct {
	consumer MessageConsumer
	handlers []handlers.Handler
	metrics  MetricsRecorder
}

// NewProcessor creates a processor. A nil recorder disables metrics.
func NewProcessor(c MessageConsumer, hs []handlers.Handler, m MetricsRecorder) *Processor {
	if m == nil {
		m = NoopMetrics()
	}
	return &Processor{consumer: c, handlers: hs, metrics: m}
}

// ProcessEvents reads events until ctx is cancelled. Every event's offset is
// committed once handled, including failed ones: failures are terminal and
// redelivery is left to the bus.
func (p *Processor) ProcessEvents(ctx context.Context) error {
	slog.Info("Starting telemetry processing loop", "handlers", p.handlerNames())

	for {
		select {
		case <-ctx.Done():
			slog.Info("Telemetry processing loop stopped")
			return nil
		default:
		}

		ev, msg, err := p.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("Failed to read telemetry event", "error", err)
			continue
		}

		p.HandleEvent(ctx, ev)

		if msg != nil {
			if err := p.consumer.CommitMessage(ctx, msg); err != nil {
				slog.Error("Failed to commit offset",
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
			}
		}
	}
}

// HandleEvent normalizes a raw event and fans it out to the handlers.
func (p *Processor) HandleEvent(ctx context.Context, ev *consumer.RawEvent) Outcome {
	p.metrics.RecordReceived()
	start := time.Now()

	out := Outcome{}
	rec, err := telemetry.Normalize(ev.Payload, ev.ContentType)
	if err != nil {
		out.NormalizeErr = err
		p.reportNormalizeError(ev, err)
		p.metrics.RecordError()
		return out
	}
	out.Record = rec

	for _, h := range p.handlers {
		if err := runHandler(ctx, h, rec); err != nil {
			if out.HandlerErrs == nil {
				out.HandlerErrs = make(map[string]error)
			}
			out.HandlerErrs[h.Name()] = err
			p.reportHandlerError(h.Name(), rec, err)
		}
	}

	if out.Failed() {
		p.metrics.RecordError()
	}
	p.metrics.RecordProcessed(time.Since(start))
	return out
}

// runHandler converts a handler panic into an error.
func runHandler(ctx context.Context, h handlers.Handler, r *telemetry.Record) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler %s panicked: %v", h.Name(), rec)
		}
	}()
	return h.Handle(ctx, r)
}

func (p *Processor) reportNormalizeError(ev *consumer.RawEvent, err error) {
	var decodeErr *telemetry.DecodeError
	switch {
	case errors.Is(err, telemetry.ErrEmptyBody):
		p.metrics.IncrementCustom(MetricEmptyBody)
		slog.Warn("Skipping telemetry event without body",
			"key", ev.Key,
			"offset", ev.Offset,
		)
	case errors.As(err, &decodeErr):
		p.metrics.IncrementCustom(MetricDecodeFailed)
		slog.Error("Failed to decode telemetry event",
			"key", ev.Key,
			"offset", ev.Offset,
			"content_type", ev.ContentType,
			"error", err,
		)
	default:
		slog.Error("Failed to normalize telemetry event", "key", ev.Key, "error", err)
	}
}

func (p *Processor) reportHandlerError(name string, r *telemetry.Record, err error) {
	p.metrics.IncrementCustom("handler_" + name + "_failed")

	switch {
	case errors.Is(err, telemetry.ErrMissingKey):
		p.metrics.IncrementCustom(MetricMissingKey)
		slog.Warn("Telemetry record has no deviceId, skipping write",
			"handler", name,
			"event_id", r.SourceEventID,
		)
	case telemetry.IsStoreError(err):
		slog.Error("Telemetry store write failed",
			"handler", name,
			"device_id", r.DeviceIDOrNA(),
			"error", err,
		)
	default:
		slog.Error("Telemetry handler failed",
			"handler", name,
			"device_id", r.DeviceIDOrNA(),
			"error", err,
		)
	}
}

func (p *Processor) handlerNames() []string {
	names := make([]string, 0, len(p.handlers))
	for _, h := range p.handlers {
		names = append(names, h.Name())
	}
	return names
}
