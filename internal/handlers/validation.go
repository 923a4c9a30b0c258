package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Keep validation logic centralized to avoid divergence across endpoints.

var validAlertTypes = map[string]struct{}{
	"restock":    {},
	"price_drop": {},
	"low_stock":  {},
	"pre_order":  {},
}

func isValidAlertType(t string) bool {
	_, ok := validAlertTypes[t]
	return ok
}

var validPriorities = map[string]struct{}{
	"low":    {},
	"medium": {},
	"high":   {},
	"urgent": {},
}

func isValidPriority(p string) bool {
	_, ok := validPriorities[p]
	return ok
}

// HTTP helper functions to reduce duplication across handlers.

// requireMethod validates that the request method matches the expected method.
// Returns true if valid, false otherwise (and writes error response).
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, CodeValidationError, "method not allowed", nil)
		return false
	}
	return true
}

// requireUser extracts the authenticated user id from the X-User-ID header.
// Returns the id and true, or writes a 401 and returns false.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, CodeAuthenticationRequired, "authentication required", nil)
		return "", false
	}
	return userID, true
}

// decodeJSON decodes the request body as JSON into the provided value.
// Returns true on success, false on error (and writes error response).
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid request body", nil)
		return false
	}
	return true
}

// writeJSON writes the value as JSON with appropriate headers.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination extracts limit/offset query parameters with defaults and
// bounds. Invalid values fall back to the defaults rather than erroring.
func parsePagination(r *http.Request) Pagination {
	p := Pagination{Limit: 20, Offset: 0}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			if limit > 100 {
				limit = 100
			}
			p.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			p.Offset = offset
		}
	}
	return p
}

// parseSince parses an optional RFC3339 "since" query parameter. A missing
// parameter returns the zero time; a malformed one returns false.
func parseSince(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return time.Time{}, true
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return since, true
}

// parseProductIDs splits the optional comma-separated productIds query
// parameter. Pattern validation happens in the dashboard service so every
// caller shares one rule.
func parseProductIDs(r *http.Request) []string {
	raw := r.URL.Query().Get("productIds")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
