// Package email delivers alerts by email through the Resend API.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"boosterbeacon/internal/database"
	"boosterbeacon/internal/delivery"
	"boosterbeacon/internal/delivery/payload"
)

// Sender is the slice of the Resend API the channel uses. Satisfied by
// resend.Client.Emails.
type Sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Channel implements email alert delivery via Resend.
type Channel struct {
	sender Sender
	from   string
}

// NewChannel creates an email channel backed by the Resend API.
func NewChannel(apiKey, from string) *Channel {
	if apiKey == "" {
		slog.Warn("Resend API key not set, email channel will reject sends")
		return &Channel{from: from}
	}
	client := resend.NewClient(apiKey)
	return &Channel{
		sender: client.Emails,
		from:   from,
	}
}

// NewChannelWithSender creates an email channel with a custom sender.
func NewChannelWithSender(sender Sender, from string) *Channel {
	return &Channel{sender: sender, from: from}
}

// Type returns the channel type this strategy handles.
func (c *Channel) Type() string {
	return delivery.ChannelEmail
}

// Send delivers the alert to the user's email address.
func (c *Channel) Send(ctx context.Context, alert *database.Alert, settings *database.ChannelSettings) delivery.Result {
	if c.sender == nil {
		return delivery.Failure(c.Type(), fmt.Errorf("email provider not configured"))
	}
	if settings.Email == "" {
		return delivery.Failure(c.Type(), fmt.Errorf("recipient is required"))
	}

	msg := payload.BuildEmailPayload(alert)
	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{settings.Email},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	result, err := c.sender.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("Resend send failed",
			"error", err,
			"alert_id", alert.ID,
		)
		return delivery.Failure(c.Type(), fmt.Errorf("Resend send failed: %w", err))
	}

	slog.Info("Email sent via Resend",
		"email_id", result.Id,
		"alert_id", alert.ID,
		"user_id", alert.UserID,
	)
	return delivery.Result{
		Channel: c.Type(),
		Success: true,
		Metadata: map[string]any{
			"emailId": result.Id,
		},
	}
}
