package handlers

import (
	"context"
	"net/http"

	"boosterbeacon/internal/cache"
	"boosterbeacon/internal/database"
)

// systemStatsCacheKey is the cache key for the system-wide aggregates.
const systemStatsCacheKey = "stats:system"

// GetSystemStats serves system-wide aggregates. The response is cached; a
// cache outage degrades to computing fresh on every call.
func (h *Handlers) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	produce := func(ctx context.Context) (*database.SystemStats, error) {
		return h.db.GetSystemStats(ctx)
	}

	var stats *database.SystemStats
	var err error
	if h.statsCache != nil {
		stats, err = cache.WithCache(r.Context(), h.statsCache, systemStatsCacheKey, produce)
	} else {
		stats, err = produce(r.Context())
	}
	if err != nil {
		handleServiceError(w, err, "get_system_stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetServiceMetrics serves the per-service counters reported to Redis plus
// the API's circuit breaker states.
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	response := map[string]any{}
	if h.serviceMetrics != nil {
		services, err := h.serviceMetrics.GetAll(r.Context())
		if err != nil {
			handleServiceError(w, err, "get_service_metrics")
			return
		}
		response["services"] = services
	}
	if h.breakers != nil {
		response["circuitBreakers"] = h.breakers.Metrics()
	}
	writeJSON(w, http.StatusOK, response)
}
