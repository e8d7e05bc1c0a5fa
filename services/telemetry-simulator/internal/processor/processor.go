// Package processor drives the simulator: it ticks the generator either in a
// single burst or on a cron schedule, and publishes every event.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/config"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/generator"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/producer"
)

// burstProgressInterval is how often burst mode logs progress, in ticks.
const burstProgressInterval = 100

// Processor orchestrates event generation and publishing.
type Processor struct {
	generator *generator.Generator
	publisher producer.Publisher
	cfg       *config.Config
	metrics   MetricsRecorder
}

// NewProcessor creates a new processor. A nil recorder disables metrics.
func NewProcessor(gen *generator.Generator, pub producer.Publisher, cfg *config.Config, m MetricsRecorder) *Processor {
	if m == nil {
		m = NoOpMetrics{}
	}
	return &Processor{
		generator: gen,
		publisher: pub,
		cfg:       cfg,
		metrics:   m,
	}
}

// Process runs burst mode when a burst size is set, scheduled mode otherwise.
func (p *Processor) Process(ctx context.Context) error {
	if p.cfg.BurstSize > 0 {
		return p.runBurstMode(ctx)
	}
	return p.runScheduledMode(ctx)
}

// publishTick generates one event per robot and publishes them in order.
// It returns how many were published before the first failure.
func (p *Processor) publishTick(ctx context.Context) (int, error) {
	events := p.generator.Tick()
	for i, ev := range events {
		if err := p.publisher.Publish(ctx, ev); err != nil {
			p.metrics.RecordError()
			return i, fmt.Errorf("failed to publish event for %s: %w", ev.DeviceID, err)
		}
		p.metrics.RecordPublished()
		p.metrics.IncrementCustom("shape_" + ev.Shape.String())
		if ev.Body["currentStatus"] == "error" {
			p.metrics.IncrementCustom("status_error_published")
		}
	}
	return len(events), nil
}

// runBurstMode publishes BurstSize ticks back to back.
func (p *Processor) runBurstMode(ctx context.Context) error {
	slog.Info("Starting burst mode", "ticks", p.cfg.BurstSize, "robots", p.generator.Size())

	startTime := time.Now()
	totalSent := 0
	for i := 0; i < p.cfg.BurstSize; i++ {
		if err := ctx.Err(); err != nil {
			slog.Warn("Burst mode cancelled", "ticks", i, "requested", p.cfg.BurstSize)
			return err
		}

		n, err := p.publishTick(ctx)
		totalSent += n
		if err != nil {
			return err
		}

		if (i+1)%burstProgressInterval == 0 {
			slog.Info("Burst progress",
				"ticks", i+1,
				"total", p.cfg.BurstSize,
				"events_sent", totalSent,
			)
		}
	}

	elapsed := time.Since(startTime).Seconds()
	slog.Info("Burst mode completed",
		"events_sent", totalSent,
		"duration_sec", fmt.Sprintf("%.2f", elapsed),
	)
	return nil
}

// runScheduledMode publishes a tick each time the cron schedule fires, until
// Duration elapses or ctx is cancelled. Ticks that fire while a previous one
// is still publishing are dropped.
func (p *Processor) runScheduledMode(ctx context.Context) error {
	slog.Info("Starting scheduled mode",
		"schedule", p.cfg.Schedule,
		"duration", p.cfg.Duration,
		"robots", p.generator.Size(),
	)

	ticks := make(chan struct{}, 1)
	c := cron.New()
	if _, err := c.AddFunc(p.cfg.Schedule, func() {
		select {
		case ticks <- struct{}{}:
		default:
			slog.Warn("Skipping tick, previous tick still publishing")
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", p.cfg.Schedule, err)
	}
	c.Start()
	defer c.Stop()

	deadline := time.NewTimer(p.cfg.Duration)
	defer deadline.Stop()

	totalSent, tickCount := 0, 0
	for {
		select {
		case <-ctx.Done():
			slog.Warn("Scheduled mode cancelled", "ticks", tickCount, "events_sent", totalSent)
			return ctx.Err()
		case <-deadline.C:
			slog.Info("Duration reached", "ticks", tickCount, "events_sent", totalSent)
			return nil
		case <-ticks:
			n, err := p.publishTick(ctx)
			totalSent += n
			tickCount++
			if err != nil {
				return err
			}
			slog.Info("Tick published", "tick", tickCount, "events", n, "events_sent", totalSent)
		}
	}
}
