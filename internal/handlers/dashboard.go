package handlers

import (
	"net/http"
)

// GetDashboard serves the per-user dashboard read-model.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	data, err := h.dashboard.GetDashboardData(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, "get_dashboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dashboard": data})
}

// GetConsolidatedDashboard serves the dashboard, portfolio, and insights in
// one response. Accepts an optional comma-separated productIds parameter for
// the insights section.
func (h *Handlers) GetConsolidatedDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	data, err := h.dashboard.GetConsolidatedDashboardData(r.Context(), userID, parseProductIDs(r))
	if err != nil {
		handleServiceError(w, err, "get_consolidated_dashboard")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GetPredictiveInsights serves heuristic insights for the requested or
// watched products.
func (h *Handlers) GetPredictiveInsights(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.dashboard.GetPredictiveInsights(r.Context(), userID, parseProductIDs(r))
	if err != nil {
		handleServiceError(w, err, "get_predictive_insights")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"insights": result})
}

// GetPortfolio serves the user's watched-product valuation.
func (h *Handlers) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	portfolio, err := h.dashboard.GetPortfolio(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, "get_portfolio")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"portfolio": portfolio})
}

// GetDashboardUpdates serves alerts and watch changes newer than the
// optional since parameter (RFC3339).
func (h *Handlers) GetDashboardUpdates(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	since, ok := parseSince(r)
	if !ok {
		writeError(w, http.StatusBadRequest, CodeValidationError, "since must be an RFC3339 timestamp", nil)
		return
	}

	updates, err := h.dashboard.GetDashboardUpdates(r.Context(), userID, since)
	if err != nil {
		handleServiceError(w, err, "get_dashboard_updates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updates": updates})
}
