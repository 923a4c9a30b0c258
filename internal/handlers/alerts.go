package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"boosterbeacon/internal/database"
	"boosterbeacon/internal/events"
)

// CreateAlertRequest represents an alert submitted for delivery. A
// scheduled_for in the future defers delivery until that time.
type CreateAlertRequest struct {
	UserID       string             `json:"user_id"`
	ProductID    string             `json:"product_id"`
	RetailerID   string             `json:"retailer_id"`
	Type         string             `json:"type"`
	Priority     string             `json:"priority"`
	Channels     []string           `json:"channels"`
	ScheduledFor *time.Time         `json:"scheduled_for,omitempty"`
	Data         database.AlertData `json:"data"`
}

// CreateAlert persists a pending alert and publishes it to the delivery
// pipeline. The alert is accepted once the row exists; a publish failure is
// surfaced in logs and left for the retry sweep rather than failing the
// request.
func (h *Handlers) CreateAlert(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req CreateAlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "user_id is required", nil)
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "product_id is required", nil)
		return
	}
	if !isValidAlertType(req.Type) {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid alert type", map[string]string{"type": req.Type})
		return
	}
	if req.Priority == "" {
		req.Priority = database.PriorityMedium
	}
	if !isValidPriority(req.Priority) {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid priority", map[string]string{"priority": req.Priority})
		return
	}
	if len(req.Channels) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationError, "at least one delivery channel is required", nil)
		return
	}

	ctx := r.Context()
	alert, err := h.db.CreateAlert(ctx, &database.Alert{
		UserID:           req.UserID,
		ProductID:        req.ProductID,
		RetailerID:       req.RetailerID,
		Type:             req.Type,
		Priority:         req.Priority,
		Data:             req.Data,
		DeliveryChannels: req.Channels,
		ScheduledFor:     req.ScheduledFor,
	})
	if err != nil {
		handleServiceError(w, err, "create_alert")
		return
	}
	h.metrics.RecordReceived()

	if h.producer != nil {
		if err := h.producer.Publish(ctx, events.FromAlert(alert)); err != nil {
			// The row is pending; the retry sweep will pick it up.
			slog.Error("Failed to publish alert, leaving for sweep",
				"alert_id", alert.ID,
				"error", err,
			)
		} else {
			h.metrics.RecordPublished()
		}
	}

	writeJSON(w, http.StatusCreated, alert)
}

// ListAlerts serves the authenticated user's alerts, newest first.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	p := parsePagination(r)
	result, err := h.db.ListAlertsByUser(r.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		handleServiceError(w, err, "list_alerts")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// markRequest identifies the alert being acknowledged.
type markRequest struct {
	AlertID string `json:"alert_id"`
}

// MarkAlertRead stamps the alert's read_at. Already-read alerts are left
// untouched.
func (h *Handlers) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	h.markAlert(w, r, "mark_alert_read", h.db.MarkAsRead)
}

// MarkAlertClicked stamps the alert's clicked_at for click-through tracking.
func (h *Handlers) MarkAlertClicked(w http.ResponseWriter, r *http.Request) {
	h.markAlert(w, r, "mark_alert_clicked", h.db.MarkAsClicked)
}

func (h *Handlers) markAlert(w http.ResponseWriter, r *http.Request, operation string, mark func(ctx context.Context, userID, alertID string) error) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req markRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AlertID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "alert_id is required", nil)
		return
	}

	if err := mark(r.Context(), userID, req.AlertID); err != nil {
		handleServiceError(w, err, operation)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
