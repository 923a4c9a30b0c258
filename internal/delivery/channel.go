// Package delivery coordinates multi-channel alert delivery. Channels plug
// in through a strategy registry; the dispatcher fans an alert out to every
// configured channel and records the outcome on the alert row.
package delivery

import (
	"context"

	"boosterbeacon/internal/database"
)

// Channel type names as stored in an alert's delivery_channels array.
const (
	ChannelWebPush = "web_push"
	ChannelEmail   = "email"
	ChannelWebhook = "webhook"
	ChannelDiscord = "discord"
)

// Result is the uniform outcome every channel send returns. A channel never
// signals failure by panicking or by a bare error: it always settles into a
// Result so the dispatcher can aggregate outcomes across channels.
type Result struct {
	Channel  string         `json:"channel"`
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Failure builds a failed Result for a channel.
func Failure(channel string, err error) Result {
	return Result{Channel: channel, Success: false, Error: err.Error()}
}

// Channel is the interface every delivery strategy implements.
type Channel interface {
	// Type returns the channel name this strategy handles.
	Type() string

	// Send delivers the alert using the user's channel settings and settles
	// into a Result.
	Send(ctx context.Context, alert *database.Alert, settings *database.ChannelSettings) Result
}

// Registry manages delivery channel strategies.
type Registry struct {
	channels map[string]Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]Channel),
	}
}

// Register registers a channel strategy.
func (r *Registry) Register(ch Channel) {
	r.channels[ch.Type()] = ch
}

// Get retrieves a channel strategy by type.
func (r *Registry) Get(channelType string) (Channel, bool) {
	ch, ok := r.channels[channelType]
	return ch, ok
}

// List returns all registered channel types.
func (r *Registry) List() []string {
	types := make([]string, 0, len(r.channels))
	for t := range r.channels {
		types = append(types, t)
	}
	return types
}
