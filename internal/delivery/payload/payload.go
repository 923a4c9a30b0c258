// Package payload provides payload builders for the delivery channels.
package payload

import (
	"fmt"
	"strings"
	"time"

	"boosterbeacon/internal/database"
)

// EmailPayload represents email message content.
type EmailPayload struct {
	Subject string
	HTML    string
	Text    string
}

// BuildEmailPayload builds email subject and body from an alert.
func BuildEmailPayload(alert *database.Alert) EmailPayload {
	return EmailPayload{
		Subject: fmt.Sprintf("%s: %s at %s", titleForType(alert.Type), alert.Data.ProductName, alert.Data.RetailerName),
		HTML:    buildEmailHTML(alert),
		Text:    buildEmailText(alert),
	}
}

func buildEmailText(alert *database.Alert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n", titleForType(alert.Type)))
	sb.WriteString("==================\n\n")
	sb.WriteString(fmt.Sprintf("Product: %s\n", alert.Data.ProductName))
	sb.WriteString(fmt.Sprintf("Retailer: %s\n", alert.Data.RetailerName))
	sb.WriteString(fmt.Sprintf("Availability: %s\n", alert.Data.AvailabilityStatus))
	if alert.Data.Price > 0 {
		sb.WriteString(fmt.Sprintf("Price: $%.2f\n", alert.Data.Price))
	}
	if alert.Data.ProductURL != "" {
		sb.WriteString(fmt.Sprintf("\nProduct page: %s\n", alert.Data.ProductURL))
	}
	if alert.Data.CartURL != "" {
		sb.WriteString(fmt.Sprintf("Add to cart: %s\n", alert.Data.CartURL))
	}
	return sb.String()
}

func buildEmailHTML(alert *database.Alert) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h2>%s</h2>", titleForType(alert.Type)))
	sb.WriteString(fmt.Sprintf("<p><strong>%s</strong> at %s is %s.</p>",
		alert.Data.ProductName, alert.Data.RetailerName, alert.Data.AvailabilityStatus))
	if alert.Data.Price > 0 {
		sb.WriteString(fmt.Sprintf("<p>Price: $%.2f</p>", alert.Data.Price))
	}
	if alert.Data.CartURL != "" {
		sb.WriteString(fmt.Sprintf(`<p><a href="%s">Add to cart</a></p>`, alert.Data.CartURL))
	} else if alert.Data.ProductURL != "" {
		sb.WriteString(fmt.Sprintf(`<p><a href="%s">View product</a></p>`, alert.Data.ProductURL))
	}
	return sb.String()
}

// WebhookPayload is the generic JSON document POSTed to user webhooks.
type WebhookPayload struct {
	AlertID   string             `json:"alert_id"`
	UserID    string             `json:"user_id"`
	ProductID string             `json:"product_id"`
	Type      string             `json:"type"`
	Priority  string             `json:"priority"`
	Data      database.AlertData `json:"data"`
	Timestamp string             `json:"timestamp"`
}

// BuildWebhookPayload builds a webhook payload from the alert.
func BuildWebhookPayload(alert *database.Alert) WebhookPayload {
	return WebhookPayload{
		AlertID:   alert.ID,
		UserID:    alert.UserID,
		ProductID: alert.ProductID,
		Type:      alert.Type,
		Priority:  alert.Priority,
		Data:      alert.Data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// DiscordPayload is a Discord webhook message with one embed.
type DiscordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed is a single Discord rich embed.
type DiscordEmbed struct {
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color,omitempty"`
	Fields      []DiscordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"`
}

// DiscordField is one embed field.
type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// BuildDiscordPayload builds a Discord webhook payload from the alert.
func BuildDiscordPayload(alert *database.Alert) DiscordPayload {
	fields := []DiscordField{
		{Name: "Retailer", Value: alert.Data.RetailerName, Inline: true},
		{Name: "Status", Value: alert.Data.AvailabilityStatus, Inline: true},
	}
	if alert.Data.Price > 0 {
		fields = append(fields, DiscordField{
			Name:   "Price",
			Value:  fmt.Sprintf("$%.2f", alert.Data.Price),
			Inline: true,
		})
	}

	embed := DiscordEmbed{
		Title:     fmt.Sprintf("%s: %s", titleForType(alert.Type), alert.Data.ProductName),
		URL:       alert.Data.ProductURL,
		Color:     priorityColor(alert.Priority),
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if alert.Data.CartURL != "" {
		embed.Description = fmt.Sprintf("[Add to cart](%s)", alert.Data.CartURL)
	}
	return DiscordPayload{Embeds: []DiscordEmbed{embed}}
}

// PushPayload is the JSON document delivered as the web-push message body.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag"`
}

// BuildPushPayload builds a web-push notification payload from the alert.
func BuildPushPayload(alert *database.Alert) PushPayload {
	body := fmt.Sprintf("%s at %s", alert.Data.ProductName, alert.Data.RetailerName)
	if alert.Data.Price > 0 {
		body = fmt.Sprintf("%s for $%.2f", body, alert.Data.Price)
	}

	url := alert.Data.CartURL
	if url == "" {
		url = alert.Data.ProductURL
	}
	return PushPayload{
		Title: titleForType(alert.Type),
		Body:  body,
		URL:   url,
		Tag:   alert.ID,
	}
}

// titleForType maps an alert type to its human title.
func titleForType(alertType string) string {
	switch alertType {
	case database.TypeRestock:
		return "Back in stock"
	case database.TypePriceDrop:
		return "Price drop"
	case database.TypeLowStock:
		return "Low stock"
	case database.TypePreOrder:
		return "Pre-order open"
	default:
		return "Product alert"
	}
}

// priorityColor maps an alert priority to a Discord embed color.
func priorityColor(priority string) int {
	switch priority {
	case database.PriorityUrgent:
		return 0xe74c3c // red
	case database.PriorityHigh:
		return 0xe67e22 // orange
	case database.PriorityMedium:
		return 0xf1c40f // yellow
	default:
		return 0x2ecc71 // green
	}
}
