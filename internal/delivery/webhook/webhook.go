// Package webhook delivers alerts to user-configured webhooks via HTTP POST.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"boosterbeacon/internal/database"
	"boosterbeacon/internal/delivery"
	"boosterbeacon/internal/delivery/payload"
)

// Channel implements webhook alert delivery via HTTP POST.
type Channel struct {
	httpClient *http.Client
}

// NewChannel creates a new webhook channel.
func NewChannel() *Channel {
	return &Channel{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewChannelWithClient creates a webhook channel with a custom HTTP client.
func NewChannelWithClient(client *http.Client) *Channel {
	return &Channel{httpClient: client}
}

// Type returns the channel type this strategy handles.
func (c *Channel) Type() string {
	return delivery.ChannelWebhook
}

// Send POSTs the alert payload to the user's configured webhook URL.
func (c *Channel) Send(ctx context.Context, alert *database.Alert, settings *database.ChannelSettings) delivery.Result {
	url := settings.WebhookURL
	if url == "" {
		return delivery.Failure(c.Type(), fmt.Errorf("no webhook URL configured"))
	}
	if !isValidURL(url) {
		return delivery.Failure(c.Type(), fmt.Errorf("invalid webhook URL: %q (must be a valid HTTP/HTTPS URL)", url))
	}

	body, err := json.Marshal(payload.BuildWebhookPayload(alert))
	if err != nil {
		return delivery.Failure(c.Type(), fmt.Errorf("failed to marshal webhook payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return delivery.Failure(c.Type(), fmt.Errorf("failed to create HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send webhook alert",
			"error", err,
			"alert_id", alert.ID,
		)
		return delivery.Failure(c.Type(), fmt.Errorf("failed to send webhook alert: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Webhook returned error status",
			"status_code", resp.StatusCode,
			"alert_id", alert.ID,
		)
		return delivery.Failure(c.Type(), fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}

	slog.Info("Successfully sent webhook alert",
		"alert_id", alert.ID,
		"user_id", alert.UserID,
	)
	return delivery.Result{
		Channel: c.Type(),
		Success: true,
		Metadata: map[string]any{
			"statusCode": resp.StatusCode,
		},
	}
}

func isValidURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
