package processor

import (
	"time"

	"github.com/afikmenashe/robot-telemetry/pkg/metrics"
)

// metricsAdapter adapts *metrics.Collector to MetricsRecorder.
type metricsAdapter struct {
	collector *metrics.Collector
}

// NewMetricsAdapter wraps a metrics.Collector as a MetricsRecorder.
// If collector is nil, returns a no-op implementation.
func NewMetricsAdapter(collector *metrics.Collector) MetricsRecorder {
	if collector == nil {
		return NoopMetrics()
	}
	return &metricsAdapter{collector: collector}
}

func (m *metricsAdapter) RecordReceived()                 { m.collector.RecordReceived() }
func (m *metricsAdapter) RecordProcessed(d time.Duration) { m.collector.RecordProcessed(d) }
func (m *metricsAdapter) RecordError()                    { m.collector.RecordError() }
func (m *metricsAdapter) IncrementCustom(name string)     { m.collector.IncrementCustom(name) }
