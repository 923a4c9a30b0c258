package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"boosterbeacon/internal/breaker"
	"boosterbeacon/internal/database"
	"boosterbeacon/internal/delivery/retry"
)

// AlertStore is the persistence surface the dispatcher records outcomes on.
type AlertStore interface {
	GetChannelSettings(ctx context.Context, userID string) (*database.ChannelSettings, error)
	MarkAsSent(ctx context.Context, alertID string, channels []string) error
	MarkAsFailed(ctx context.Context, alertID, reason string, countRetry bool) error
}

// Dispatcher fans one alert out to every channel it requests, guarding each
// external dependency with its own circuit breaker, and settles the alert's
// status from the aggregate outcome.
type Dispatcher struct {
	registry *Registry
	store    AlertStore
	breakers *breaker.Group
	retryCfg retry.Config
}

// NewDispatcher creates a dispatcher over the given channel registry.
func NewDispatcher(registry *Registry, store AlertStore, breakers *breaker.Group) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		store:    store,
		breakers: breakers,
		retryCfg: retry.DefaultConfig(),
	}
}

// Dispatch delivers the alert on every requested channel and records the
// outcome: sent when at least one channel succeeded, failed (with the retry
// counter bumped) when all of them failed. The returned results hold the
// per-channel outcomes in request order.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *database.Alert) ([]Result, error) {
	if len(alert.DeliveryChannels) == 0 {
		slog.Warn("Alert has no delivery channels",
			"alert_id", alert.ID,
			"user_id", alert.UserID,
		)
		err := d.store.MarkAsFailed(ctx, alert.ID, "no delivery channels configured", false)
		return nil, err
	}

	settings, err := d.store.GetChannelSettings(ctx, alert.UserID)
	if err != nil {
		if markErr := d.store.MarkAsFailed(ctx, alert.ID, "channel settings unavailable", true); markErr != nil {
			slog.Error("Failed to record delivery failure",
				"error", markErr,
				"alert_id", alert.ID,
			)
		}
		return nil, fmt.Errorf("failed to load channel settings for user %s: %w", alert.UserID, err)
	}

	results := make([]Result, 0, len(alert.DeliveryChannels))
	for _, channelType := range alert.DeliveryChannels {
		results = append(results, d.sendOn(ctx, channelType, alert, settings))
	}

	var sentOn []string
	var failures []string
	for _, res := range results {
		if res.Success {
			sentOn = append(sentOn, res.Channel)
		} else {
			failures = append(failures, fmt.Sprintf("%s: %s", res.Channel, res.Error))
		}
	}

	if len(sentOn) > 0 {
		if len(failures) > 0 {
			slog.Warn("Partial delivery",
				"alert_id", alert.ID,
				"sent", sentOn,
				"failures", strings.Join(failures, "; "),
			)
		}
		if err := d.store.MarkAsSent(ctx, alert.ID, sentOn); err != nil {
			return results, fmt.Errorf("failed to mark alert %s sent: %w", alert.ID, err)
		}
		return results, nil
	}

	reason := strings.Join(failures, "; ")
	if err := d.store.MarkAsFailed(ctx, alert.ID, reason, true); err != nil {
		return results, fmt.Errorf("failed to mark alert %s failed: %w", alert.ID, err)
	}
	slog.Warn("All delivery channels failed",
		"alert_id", alert.ID,
		"user_id", alert.UserID,
		"reason", reason,
	)
	return results, nil
}

// breakerKey names the external dependency guarded for one send. Webhook
// and Discord targets are per-user URLs, so each target host gets its own
// breaker; one user's dead endpoint must not open the circuit for everyone
// else's. Provider-backed channels (push, email) talk to a single upstream
// and keep one breaker per provider.
func breakerKey(channelType string, settings *database.ChannelSettings) string {
	var target string
	switch channelType {
	case ChannelWebhook:
		target = settings.WebhookURL
	case ChannelDiscord:
		target = settings.DiscordWebhookURL
	default:
		return channelType
	}

	if u, err := url.Parse(target); err == nil && u.Host != "" {
		return channelType + ":" + u.Host
	}
	return channelType
}

// sendOn runs one channel send behind its circuit breaker with retry for
// transient failures. A send always settles into a Result.
func (d *Dispatcher) sendOn(ctx context.Context, channelType string, alert *database.Alert, settings *database.ChannelSettings) Result {
	ch, ok := d.registry.Get(channelType)
	if !ok {
		slog.Warn("Unknown delivery channel, skipping",
			"channel", channelType,
			"alert_id", alert.ID,
		)
		return Failure(channelType, fmt.Errorf("unknown channel %q", channelType))
	}

	b, err := d.breakers.Get(breakerKey(channelType, settings))
	if err != nil {
		return Failure(channelType, err)
	}

	var result Result
	operation := fmt.Sprintf("send_%s_%s", channelType, alert.ID)

	err = b.Execute(ctx, func(ctx context.Context) error {
		return retry.WithRetry(ctx, d.retryCfg, operation, func() error {
			result = ch.Send(ctx, alert, settings)
			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		})
	})

	var open *breaker.CircuitOpenError
	if errors.As(err, &open) {
		// The channel was never invoked.
		return Failure(channelType, err)
	}
	if err != nil && result.Channel == "" {
		return Failure(channelType, err)
	}
	return result
}
