// Package metrics collects per-service counters and persists them to Redis
// so the telemetry API can report on every running service.
package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MetricsKeyPrefix namespaces service snapshots in Redis.
	MetricsKeyPrefix = "metrics:"
	// MetricsTTL expires a snapshot whose service stopped flushing.
	MetricsTTL = 2 * time.Minute
	// DefaultReportInterval is how often Start flushes.
	DefaultReportInterval = 30 * time.Second
)

// ServiceNames lists the services that report metrics.
var ServiceNames = []string{
	"telemetry-handler",
	"telemetry-api",
	"telemetry-simulator",
}

// Key returns the Redis key holding a service's snapshot.
func Key(serviceName string) string {
	return MetricsKeyPrefix + serviceName
}

// ServiceMetrics is the snapshot one service writes to Redis.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // "healthy" or "unhealthy"

	EventsReceived  uint64 `json:"events_received"`
	EventsProcessed uint64 `json:"events_processed"`
	EventsPublished uint64 `json:"events_published"`
	EventErrors     uint64 `json:"event_errors"`

	EventsPerSecond        float64 `json:"events_per_second"`
	AvgProcessingLatencyNs float64 `json:"avg_processing_latency_ns"`

	// Per-handler outcomes, alert counts and similar.
	CustomCounters map[string]uint64 `json:"custom_counters,omitempty"`
}

// Collector accumulates counters in memory and periodically flushes them.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	received  atomic.Uint64
	processed atomic.Uint64
	published atomic.Uint64
	failed    atomic.Uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	// guarded by reportMu
	reportMu           sync.Mutex
	lastReportTime     time.Time
	lastProcessedCount uint64

	customMu       sync.RWMutex
	customCounters map[string]*atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCollector creates a collector. A nil client keeps counters in memory only.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	now := time.Now().UTC()
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      now,
		reportInterval: DefaultReportInterval,
		lastReportTime: now,
		customCounters: make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval overrides DefaultReportInterval. Call it before Start.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start flushes every report interval until ctx ends or Stop is called.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.Flush(context.Background())
				return
			case <-c.stopCh:
				c.Flush(context.Background())
				return
			case <-ticker.C:
				c.Flush(ctx)
			}
		}
	}()
}

// Stop stops the reporting goroutine after a final flush. Safe to call twice.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

func (c *Collector) RecordReceived() { c.received.Add(1) }

func (c *Collector) RecordPublished() { c.published.Add(1) }

func (c *Collector) RecordError() { c.failed.Add(1) }

// RecordProcessed counts a fully handled event and its latency.
func (c *Collector) RecordProcessed(latency time.Duration) {
	c.processed.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

// IncrementCustom increments a named counter.
func (c *Collector) IncrementCustom(name string) {
	c.AddCustom(name, 1)
}

// AddCustom adds value to a named counter, creating it on first use.
func (c *Collector) AddCustom(name string, value uint64) {
	c.customMu.RLock()
	counter, ok := c.customCounters[name]
	c.customMu.RUnlock()

	if !ok {
		c.customMu.Lock()
		if counter, ok = c.customCounters[name]; !ok {
			counter = &atomic.Uint64{}
			c.customCounters[name] = counter
		}
		c.customMu.Unlock()
	}
	counter.Add(value)
}

// GetSnapshot reads the counters. The rate covers the window since the last
// flush.
func (c *Collector) GetSnapshot() *ServiceMetrics {
	now := time.Now().UTC()
	processed := c.processed.Load()

	c.reportMu.Lock()
	var rate float64
	if elapsed := now.Sub(c.lastReportTime).Seconds(); elapsed > 0 {
		rate = float64(processed-c.lastProcessedCount) / elapsed
	}
	c.reportMu.Unlock()

	var avgLatencyNs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(n)
	}

	c.customMu.RLock()
	custom := make(map[string]uint64, len(c.customCounters))
	for name, counter := range c.customCounters {
		custom[name] = counter.Load()
	}
	c.customMu.RUnlock()

	return &ServiceMetrics{
		ServiceName:            c.serviceName,
		StartedAt:              c.startedAt,
		LastUpdated:            now,
		Status:                 "healthy",
		EventsReceived:         c.received.Load(),
		EventsProcessed:        processed,
		EventsPublished:        c.published.Load(),
		EventErrors:            c.failed.Load(),
		EventsPerSecond:        rate,
		AvgProcessingLatencyNs: avgLatencyNs,
		CustomCounters:         custom,
	}
}

// Flush writes the current snapshot to Redis. Latency stays an all-time
// average; only the rate window is reset.
func (c *Collector) Flush(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snapshot := c.GetSnapshot()

	c.reportMu.Lock()
	c.lastReportTime = snapshot.LastUpdated
	c.lastProcessedCount = snapshot.EventsProcessed
	c.reportMu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics", "service", c.serviceName, "error", err)
		return
	}

	key := Key(c.serviceName)
	if err := c.redis.Set(ctx, key, data, MetricsTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "service", c.serviceName, "error", err)
		return
	}

	slog.Debug("Metrics written to Redis", "service", c.serviceName, "key", key)
}
