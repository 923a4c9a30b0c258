// Package events defines the event structures published between the alert
// ingestion path and the delivery workers.
package events

import (
	"boosterbeacon/internal/database"
)

// SchemaVersion is the current alert.pending event schema version.
const SchemaVersion = 1

// AlertPending is published to the alert.pending topic when an alert is
// accepted for delivery. The payload carries the full alert so workers can
// deliver without an extra round trip; the row remains the source of truth
// for delivery state.
type AlertPending struct {
	AlertID       string             `json:"alert_id"`
	UserID        string             `json:"user_id"`
	ProductID     string             `json:"product_id"`
	RetailerID    string             `json:"retailer_id"`
	Type          string             `json:"type"`
	Priority      string             `json:"priority"`
	Channels      []string           `json:"channels"`
	Data          database.AlertData `json:"data"`
	CreatedAt     int64              `json:"created_at"` // Unix timestamp
	SchemaVersion int                `json:"schema_version"`
}

// FromAlert builds the pending event from a persisted alert row.
func FromAlert(alert *database.Alert) *AlertPending {
	return &AlertPending{
		AlertID:       alert.ID,
		UserID:        alert.UserID,
		ProductID:     alert.ProductID,
		RetailerID:    alert.RetailerID,
		Type:          alert.Type,
		Priority:      alert.Priority,
		Channels:      alert.DeliveryChannels,
		Data:          alert.Data,
		CreatedAt:     alert.CreatedAt.Unix(),
		SchemaVersion: SchemaVersion,
	}
}
