package router

import (
	"net/http"
)

// getOnly rejects every method except GET.
func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, req)
	}
}

// setupRoutes configures all HTTP routes for the API.
func (r *Router) setupRoutes() {
	// Cache snapshot of every robot
	r.mux.HandleFunc("/api/v1/robots/status", getOnly(r.handlers.GetRobotStatus))

	// Persisted projections
	r.mux.HandleFunc("/api/v1/robots/state", getOnly(r.handlers.GetRobotState))
	r.mux.HandleFunc("/api/v1/robots/history", getOnly(r.handlers.GetRobotHistory))

	r.mux.HandleFunc("/api/v1/services/metrics", getOnly(r.handlers.GetServiceMetrics))

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
