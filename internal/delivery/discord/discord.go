// Package discord delivers alerts to Discord via Incoming Webhooks.
package discord

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

// Channel implements Discord alert delivery via webhook embeds.
type Channel struct {
	httpClient *http.Client
}

// NewChannel creates a new Discord channel.
func NewChannel() *Channel {
	return &Channel{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewChannelWithClient creates a Discord channel with a custom HTTP client.
func NewChannelWithClient(client *http.Client) *Channel {
	return &Channel{httpClient: client}
}

// Type returns the channel type this strategy handles.
func (c *Channel) Type() string {
	return delivery.ChannelDiscord
}

// Send posts the alert as a rich embed to the user's Discord webhook.
func (c *Channel) Send(ctx context.Context, alert *database.Alert, settings *database.ChannelSettings) delivery.Result {
	url := settings.DiscordWebhookURL
	if url == "" {
		return delivery.Failure(c.Type(), fmt.Errorf("no Discord webhook URL configured"))
	}
	if !strings.HasPrefix(url, "https://") {
		return delivery.Failure(c.Type(), fmt.Errorf("invalid Discord webhook URL: %q", url))
	}

	body, err := json.Marshal(payload.BuildDiscordPayload(alert))
	if err != nil {
		return delivery.Failure(c.Type(), fmt.Errorf("failed to marshal Discord payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return delivery.Failure(c.Type(), fmt.Errorf("failed to create HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to send Discord alert",
			"error", err,
			"alert_id", alert.ID,
		)
		return delivery.Failure(c.Type(), fmt.Errorf("failed to send Discord alert: %w", err))
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Discord webhook returned error status",
			"status_code", resp.StatusCode,
			"alert_id", alert.ID,
		)
		return delivery.Failure(c.Type(), fmt.Errorf("Discord webhook returned status %d", resp.StatusCode))
	}

	slog.Info("Successfully sent Discord alert",
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
