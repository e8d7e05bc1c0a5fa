package processor

// MetricsRecorder records publishing outcomes.
type MetricsRecorder interface {
	RecordPublished()
	RecordError()
	IncrementCustom(name string)
}

// NoOpMetrics is a no-op implementation of MetricsRecorder.
type NoOpMetrics struct{}

var _ MetricsRecorder = NoOpMetrics{}

func (NoOpMetrics) RecordPublished()       {}
func (NoOpMetrics) RecordError()           {}
func (NoOpMetrics) IncrementCustom(string) {}
