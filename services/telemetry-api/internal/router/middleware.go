package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/afikmenashe/robot-telemetry/pkg/metrics"
)

// unmetered paths are polled by dashboards and probes.
var unmetered = map[string]bool{
	"/api/v1/services/metrics": true,
	"/health":                  true,
}

// corsMiddleware allows read-only cross-origin access for dashboards.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware counts requests by outcome. 4xx and 5xx responses count
// as errors, so a degraded cache or database shows up in the error rate. The
// http_<class>xx counters split them further.
func metricsMiddleware(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if collector == nil || unmetered[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			collector.RecordReceived()
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusBadRequest {
				collector.RecordError()
			} else {
				collector.RecordProcessed(time.Since(start))
			}
			collector.IncrementCustom(fmt.Sprintf("http_%dxx", rec.status/100))
		})
	}
}
