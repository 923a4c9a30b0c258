package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"boosterbeacon/internal/breaker"
	"boosterbeacon/internal/dashboard"
	"boosterbeacon/internal/database"
)

// Error codes returned in the error envelope.
const (
	CodeValidationError        = "VALIDATION_ERROR"
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeNotFound               = "NOT_FOUND"
	CodeServiceUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInternalError          = "INTERNAL_ERROR"
)

// ErrorBody is the inner error document of the envelope.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ErrorEnvelope is the uniform error response shape.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// writeError writes the uniform error envelope.
func writeError(w http.ResponseWriter, statusCode int, code, message string, details any) {
	writeJSON(w, statusCode, ErrorEnvelope{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleServiceError maps domain errors onto HTTP responses. Unrecognized
// errors become opaque 500s; internals are logged, never leaked.
func handleServiceError(w http.ResponseWriter, err error, operation string) {
	var notFound *database.NotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, CodeNotFound, notFound.Error(), nil)
		return
	}

	var validation *dashboard.ValidationError
	if errors.As(err, &validation) {
		writeError(w, http.StatusBadRequest, CodeValidationError, validation.Error(), map[string]any{
			"field":      validation.Field,
			"invalidIds": validation.InvalidIDs,
		})
		return
	}

	if errors.Is(err, database.ErrInvalidUserID) {
		writeError(w, http.StatusBadRequest, CodeValidationError, "user id is required", nil)
		return
	}

	var open *breaker.CircuitOpenError
	if errors.As(err, &open) {
		writeError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "dependency temporarily unavailable", nil)
		return
	}

	slog.Error("Request failed", "operation", operation, "error", err)
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error", nil)
}
