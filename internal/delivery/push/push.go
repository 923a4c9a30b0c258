// Package push delivers alerts as web-push notifications to every
// subscription a user has registered.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SherClockHolmes/webpush-go"

	"boosterbeacon/internal/database"
	"boosterbeacon/internal/delivery"
	"boosterbeacon/internal/delivery/payload"
)

// defaultTTL is how long (seconds) the push service may queue an undelivered
// notification.
const defaultTTL = 3600

// Transport sends one encrypted message to one push endpoint. Satisfied by
// the webpush library; faked in tests.
type Transport interface {
	Send(ctx context.Context, message []byte, sub *webpush.Subscription) (*http.Response, error)
}

// SubscriptionStore is the persistence surface the channel needs.
type SubscriptionStore interface {
	ListPushSubscriptions(ctx context.Context, userID string) ([]*database.PushSubscription, error)
	RemovePushSubscription(ctx context.Context, userID, endpoint string) error
	MarkSubscriptionUsed(ctx context.Context, userID, endpoint string) error
}

// vapidTransport is the production Transport backed by webpush-go.
type vapidTransport struct {
	options webpush.Options
}

func (t *vapidTransport) Send(ctx context.Context, message []byte, sub *webpush.Subscription) (*http.Response, error) {
	opts := t.options
	return webpush.SendNotificationWithContext(ctx, message, sub, &opts)
}

// Channel implements web-push alert delivery. One alert fans out to every
// subscription the user has; each endpoint settles independently.
type Channel struct {
	store     SubscriptionStore
	transport Transport
}

// NewChannel creates a push channel signing with the given VAPID key pair.
func NewChannel(store SubscriptionStore, vapidPublicKey, vapidPrivateKey, subscriber string) *Channel {
	return &Channel{
		store: store,
		transport: &vapidTransport{
			options: webpush.Options{
				Subscriber:      subscriber,
				VAPIDPublicKey:  vapidPublicKey,
				VAPIDPrivateKey: vapidPrivateKey,
				TTL:             defaultTTL,
			},
		},
	}
}

// NewChannelWithTransport creates a push channel with a custom transport.
func NewChannelWithTransport(store SubscriptionStore, transport Transport) *Channel {
	return &Channel{store: store, transport: transport}
}

// Type returns the channel type this strategy handles.
func (c *Channel) Type() string {
	return delivery.ChannelWebPush
}

// Send pushes the alert to every subscription the user has registered. The
// channel succeeds when at least one endpoint accepted the message. Endpoints
// the push service reports gone (404/410) are removed individually; the
// user's other subscriptions are untouched.
func (c *Channel) Send(ctx context.Context, alert *database.Alert, settings *database.ChannelSettings) delivery.Result {
	subs, err := c.store.ListPushSubscriptions(ctx, alert.UserID)
	if err != nil {
		return delivery.Failure(c.Type(), fmt.Errorf("failed to list push subscriptions: %w", err))
	}
	if len(subs) == 0 {
		return delivery.Failure(c.Type(), fmt.Errorf("no push subscriptions registered"))
	}

	message, err := json.Marshal(payload.BuildPushPayload(alert))
	if err != nil {
		return delivery.Failure(c.Type(), fmt.Errorf("failed to marshal push payload: %w", err))
	}

	sent := 0
	failed := 0
	var lastErr string
	for _, sub := range subs {
		if err := c.sendOne(ctx, message, sub); err != nil {
			failed++
			lastErr = err.Error()

			if isSubscriptionGone(err) {
				if removeErr := c.store.RemovePushSubscription(ctx, sub.UserID, sub.Endpoint); removeErr != nil {
					slog.Error("Failed to remove dead push subscription",
						"error", removeErr,
						"user_id", sub.UserID,
						"subscription_id", sub.ID,
					)
				} else {
					slog.Info("Removed dead push subscription",
						"user_id", sub.UserID,
						"subscription_id", sub.ID,
					)
				}
			} else {
				slog.Warn("Push send failed",
					"error", err,
					"alert_id", alert.ID,
					"subscription_id", sub.ID,
				)
			}
			continue
		}

		sent++
		if err := c.store.MarkSubscriptionUsed(ctx, sub.UserID, sub.Endpoint); err != nil {
			slog.Warn("Failed to mark push subscription used",
				"error", err,
				"subscription_id", sub.ID,
			)
		}
	}

	result := delivery.Result{
		Channel: c.Type(),
		Success: sent > 0,
		Metadata: map[string]any{
			"subscriptionsSent":   sent,
			"subscriptionsFailed": failed,
		},
	}
	if sent == 0 {
		result.Error = fmt.Sprintf("all %d push sends failed: %s", failed, lastErr)
	}
	return result
}

// sendOne pushes the message to one endpoint, folding HTTP error statuses
// into the returned error.
func (c *Channel) sendOne(ctx context.Context, message []byte, sub *database.PushSubscription) error {
	resp, err := c.transport.Send(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	})
	if err != nil {
		return fmt.Errorf("push send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push service returned status %d", resp.StatusCode)
	}
	return nil
}

// isSubscriptionGone reports whether the push service told us the endpoint
// no longer exists.
func isSubscriptionGone(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") ||
		strings.Contains(msg, "410") ||
		strings.Contains(msg, "gone") ||
		strings.Contains(msg, "expired") ||
		strings.Contains(msg, "unsubscribed")
}
