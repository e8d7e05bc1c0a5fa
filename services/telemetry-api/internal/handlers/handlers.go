// Package handlers provides HTTP handlers for the telemetry-api.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/afikmenashe/robot-telemetry/pkg/metrics"
	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-api/internal/database"
)

// DefaultHistoryLimit is used when a history request carries no limit.
const DefaultHistoryLimit = 50

// StatusLister lists the cached robot status records.
type StatusLister interface {
	ListAll(ctx context.Context) ([]telemetry.Record, error)
}

// StateReader reads the persisted robot projections.
type StateReader interface {
	ListLatest(ctx context.Context) ([]database.RobotState, error)
	GetLatest(ctx context.Context, deviceID string) (*database.RobotState, error)
	ListHistory(ctx context.Context, deviceID string, limit int) ([]database.HistoryEntry, error)
}

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	cache            StatusLister
	db               StateReader
	metricsReader    *metrics.Reader
	metricsCollector *metrics.Collector
	maxHistory       int
}

// NewHandlers creates a new handlers instance. maxHistory caps the history
// limit a caller may request.
func NewHandlers(cache StatusLister, db StateReader, metricsReader *metrics.Reader, metricsCollector *metrics.Collector, maxHistory int) *Handlers {
	if maxHistory < 1 {
		maxHistory = DefaultHistoryLimit
	}
	return &Handlers{
		cache:            cache,
		db:               db,
		metricsReader:    metricsReader,
		metricsCollector: metricsCollector,
		maxHistory:       maxHistory,
	}
}

// GetMetricsCollector returns the metrics collector for middleware use.
func (h *Handlers) GetMetricsCollector() *metrics.Collector {
	return h.metricsCollector
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// GetRobotStatus returns every cached robot status record.
// GET /api/v1/robots/status
func (h *Handlers) GetRobotStatus(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		slog.Error("Robot status cache not configured")
		http.Error(w, "Robot status cache unavailable", http.StatusInternalServerError)
		return
	}

	records, err := h.cache.ListAll(r.Context())
	if err != nil {
		var unavailable *telemetry.StoreUnavailableError
		if errors.As(err, &unavailable) {
			slog.Error("Robot status cache unavailable", "error", err)
			http.Error(w, "Robot status cache unavailable", http.StatusInternalServerError)
			return
		}
		slog.Error("Failed to list robot status", "error", err)
		http.Error(w, "Failed to retrieve robot status", http.StatusInternalServerError)
		return
	}

	writeJSON(w, records)
}

// GetRobotState returns the latest persisted state of every robot, or of one
// robot when device_id is given.
// GET /api/v1/robots/state[?device_id=]
func (h *Handlers) GetRobotState(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "State store unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()

	if deviceID := r.URL.Query().Get("device_id"); deviceID != "" {
		state, err := h.db.GetLatest(ctx, deviceID)
		if errors.Is(err, database.ErrNotFound) {
			http.Error(w, "Robot not found", http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("Failed to get robot state", "device_id", deviceID, "error", err)
			http.Error(w, "Failed to retrieve robot state", http.StatusInternalServerError)
			return
		}
		writeJSON(w, state)
		return
	}

	states, err := h.db.ListLatest(ctx)
	if err != nil {
		slog.Error("Failed to list robot state", "error", err)
		http.Error(w, "Failed to retrieve robot state", http.StatusInternalServerError)
		return
	}
	writeJSON(w, states)
}

// GetRobotHistory returns a robot's history, newest first.
// GET /api/v1/robots/history?device_id=&limit=
func (h *Handlers) GetRobotHistory(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "State store unavailable", http.StatusServiceUnavailable)
		return
	}

	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		http.Error(w, "device_id is required", http.StatusBadRequest)
		return
	}

	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > h.maxHistory {
		limit = h.maxHistory
	}

	entries, err := h.db.ListHistory(r.Context(), deviceID, limit)
	if err != nil {
		slog.Error("Failed to list robot history", "device_id", deviceID, "error", err)
		http.Error(w, "Failed to retrieve robot history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

// ServiceMetricsResponse wraps service metrics with known service list.
type ServiceMetricsResponse struct {
	Services      map[string]*metrics.ServiceMetrics `json:"services"`
	KnownServices []string                           `json:"known_services"`
}

// GetServiceMetrics returns metrics for all services from Redis.
// GET /api/v1/services/metrics[?service=]
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.metricsReader == nil {
		slog.Error("Metrics reader not configured")
		http.Error(w, "Metrics reader not available", http.StatusInternalServerError)
		return
	}

	if serviceName := r.URL.Query().Get("service"); serviceName != "" {
		serviceMetrics, err := h.metricsReader.GetServiceMetrics(ctx, serviceName)
		switch {
		case errors.Is(err, metrics.ErrNoMetrics):
			serviceMetrics = &metrics.ServiceMetrics{
				ServiceName: serviceName,
				Status:      "offline",
			}
		case err != nil:
			slog.Error("Failed to get service metrics", "service", serviceName, "error", err)
			http.Error(w, "Failed to retrieve service metrics", http.StatusInternalServerError)
			return
		}
		writeJSON(w, serviceMetrics)
		return
	}

	allMetrics, err := h.metricsReader.GetAllServiceMetrics(ctx)
	if err != nil {
		slog.Error("Failed to get all service metrics", "error", err)
		http.Error(w, "Failed to retrieve service metrics", http.StatusInternalServerError)
		return
	}

	for _, name := range metrics.ServiceNames {
		if _, exists := allMetrics[name]; !exists {
			allMetrics[name] = &metrics.ServiceMetrics{
				ServiceName: name,
				Status:      "offline",
			}
		}
	}

	writeJSON(w, ServiceMetricsResponse{
		Services:      allMetrics,
		KnownServices: metrics.ServiceNames,
	})
}
