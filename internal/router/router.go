// Package router provides HTTP routing configuration for the BoosterBeacon
// API. It sets up routes and applies middleware like CORS and request
// metrics.
package router

import (
	"net/http"

	"boosterbeacon/internal/handlers"
	"boosterbeacon/internal/metrics"
)

// Router wraps the HTTP mux and provides route configuration.
type Router struct {
	mux      *http.ServeMux
	handlers *handlers.Handlers
	metrics  metrics.Recorder
}

// NewRouter creates a new router with all routes configured. The recorder
// may be nil; requests are then served without counters.
func NewRouter(h *handlers.Handlers, recorder metrics.Recorder) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		metrics:  recorder,
	}
	r.setupRoutes()
	return r
}

// setupRoutes configures all HTTP routes for the API.
func (r *Router) setupRoutes() {
	// Dashboard endpoints
	r.mux.HandleFunc("/api/v1/dashboard", r.handlers.GetDashboard)
	r.mux.HandleFunc("/api/v1/dashboard/consolidated", r.handlers.GetConsolidatedDashboard)
	r.mux.HandleFunc("/api/v1/dashboard/insights", r.handlers.GetPredictiveInsights)
	r.mux.HandleFunc("/api/v1/dashboard/portfolio", r.handlers.GetPortfolio)
	r.mux.HandleFunc("/api/v1/dashboard/updates", r.handlers.GetDashboardUpdates)

	// Alert endpoints
	r.mux.HandleFunc("/api/v1/alerts", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPost:
			r.handlers.CreateAlert(w, req)
		case http.MethodGet:
			r.handlers.ListAlerts(w, req)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	r.mux.HandleFunc("/api/v1/alerts/read", r.handlers.MarkAlertRead)
	r.mux.HandleFunc("/api/v1/alerts/clicked", r.handlers.MarkAlertClicked)

	// Push subscription endpoints
	r.mux.HandleFunc("/api/v1/notifications/subscribe", r.handlers.Subscribe)
	r.mux.HandleFunc("/api/v1/notifications/unsubscribe", r.handlers.Unsubscribe)
	r.mux.HandleFunc("/api/v1/notifications/vapid-public-key", r.handlers.GetVAPIDPublicKey)

	// Aggregates and operational metrics
	r.mux.HandleFunc("/api/v1/stats/system", r.handlers.GetSystemStats)
	r.mux.HandleFunc("/api/v1/services/metrics", r.handlers.GetServiceMetrics)

	// Health check endpoint
	r.mux.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Handler returns the fully wrapped HTTP handler.
func (r *Router) Handler() http.Handler {
	var handler http.Handler = r.mux
	handler = metricsMiddleware(r.metrics)(handler)
	handler = corsMiddleware(handler)
	return handler
}
