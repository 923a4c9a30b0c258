// Package database provides PostgreSQL-backed storage for alerts, watches,
// products, and push subscriptions.
package database

import (
	"time"
)

// Alert types.
const (
	TypeRestock   = "restock"
	TypePriceDrop = "price_drop"
	TypeLowStock  = "low_stock"
	TypePreOrder  = "pre_order"
)

// Alert priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Alert statuses.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// MaxRetryCount is the hard upper bound on an alert's retry counter.
const MaxRetryCount = 10

// AlertData is the structured payload carried by every alert. It is always
// persisted as a non-null JSON object even when individual fields are empty.
type AlertData struct {
	ProductName        string  `json:"product_name"`
	RetailerName       string  `json:"retailer_name"`
	AvailabilityStatus string  `json:"availability_status"`
	ProductURL         string  `json:"product_url"`
	Price              float64 `json:"price,omitempty"`
	CartURL            string  `json:"cart_url,omitempty"`
}

// Alert represents one delivery-worthy event for a user/product/retailer combination.
type Alert struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	ProductID        string     `json:"product_id"`
	RetailerID       string     `json:"retailer_id"`
	Type             string     `json:"type"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	Data             AlertData  `json:"data"`
	DeliveryChannels []string   `json:"delivery_channels"`
	RetryCount       int        `json:"retry_count"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	ScheduledFor     *time.Time `json:"scheduled_for,omitempty"`
	SentAt           *time.Time `json:"sent_at,omitempty"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	ClickedAt        *time.Time `json:"clicked_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// AlertListResult contains paginated alert results.
type AlertListResult struct {
	Alerts []*Alert `json:"alerts"`
	Total  int64    `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// UserAlertStats is the point-in-time per-user read model computed by
// GetUserAlertStats in a single round trip.
type UserAlertStats struct {
	Total            int64            `json:"total"`
	Unread           int64            `json:"unread"`
	ByType           map[string]int64 `json:"byType"`
	ByStatus         map[string]int64 `json:"byStatus"`
	ClickThroughRate float64          `json:"clickThroughRate"`
	RecentAlerts     int64            `json:"recentAlerts"`
}

// SystemStats holds system-wide aggregates. Served from a 5-minute cache.
type SystemStats struct {
	TotalAlerts    int64            `json:"total_alerts"`
	AlertsByStatus map[string]int64 `json:"alerts_by_status"`
	AlertsLast24h  int64            `json:"alerts_last_24h"`
	TotalUsers     int64            `json:"total_users"`
	TotalWatches   int64            `json:"total_watches"`
	CollectedAt    time.Time        `json:"collected_at"`
}

// Watch represents a user's standing subscription to alerts for a product.
type Watch struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	ProductID  string     `json:"product_id"`
	RetailerID string     `json:"retailer_id,omitempty"`
	MaxPrice   *float64   `json:"max_price,omitempty"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// WatchedProduct is a watch joined with its alert volume, used for the
// dashboard's top-watched list.
type WatchedProduct struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	AlertCount  int64  `json:"alert_count"`
}

// WatchStats summarizes a user's watches.
type WatchStats struct {
	TotalWatches  int64             `json:"total_watches"`
	ActiveWatches int64             `json:"active_watches"`
	TopProducts   []*WatchedProduct `json:"top_products"`
}

// Product represents a retail product row.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MSRP       float64   `json:"msrp"`
	Popularity float64   `json:"popularity"` // normalized 0..1
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PricePoint is one price_history row for a product.
type PricePoint struct {
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ProductSignals bundles the aggregate inputs the insight engine consumes
// for one product.
type ProductSignals struct {
	Product          *Product     `json:"product"`
	RecentAlertCount int64        `json:"recent_alert_count"`
	AvgPaidPrice     float64      `json:"avg_paid_price"`
	AvgLeadTimeDays  float64      `json:"avg_lead_time_days"`
	PriceHistory     []PricePoint `json:"price_history"`
}

// PushSubscription is one registered web-push endpoint for a user.
// Subscriptions are keyed by (user_id, endpoint) with upsert-by-endpoint
// semantics so resubscribes from the same device update in place.
type PushSubscription struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Endpoint  string     `json:"endpoint"`
	P256dh    string     `json:"p256dh"`
	Auth      string     `json:"auth"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// ChannelSettings holds a user's configured delivery targets.
type ChannelSettings struct {
	UserID            string `json:"user_id"`
	Email             string `json:"email"`
	WebhookURL        string `json:"webhook_url,omitempty"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty"`
	PushEnabled       bool   `json:"push_enabled"`
}
