package handlers

import (
	"log/slog"
	"net/http"
)

// SubscribeRequest is the web-push subscription document a browser posts.
type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe registers (or refreshes) a web-push subscription for the user.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "endpoint is required", nil)
		return
	}
	if req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "subscription keys are required", nil)
		return
	}

	sub, err := h.db.UpsertPushSubscription(r.Context(), userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		handleServiceError(w, err, "subscribe_push")
		return
	}

	slog.Info("Push subscription registered",
		"user_id", userID,
		"subscription_id", sub.ID,
	)
	writeJSON(w, http.StatusCreated, sub)
}

// UnsubscribeRequest identifies the endpoint to remove.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unsubscribe removes one web-push subscription. Removing an endpoint that
// is already gone still succeeds.
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UnsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, CodeValidationError, "endpoint is required", nil)
		return
	}

	if err := h.db.RemovePushSubscription(r.Context(), userID, req.Endpoint); err != nil {
		handleServiceError(w, err, "unsubscribe_push")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// GetVAPIDPublicKey serves the public key push clients subscribe with.
// Returns 503 when push is not configured.
func (h *Handlers) GetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	if h.vapidPublicKey == "" {
		writeError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "push notifications are not configured", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.vapidPublicKey})
}
