package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

// UpsertPushSubscription registers a push endpoint for a user. A resubscribe
// from the same endpoint updates the keys in place instead of creating a
// duplicate row.
func (db *DB) UpsertPushSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) (*PushSubscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, endpoint)
		DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
		RETURNING id, user_id, endpoint, p256dh, auth, created_at, last_used`
	var sub PushSubscription
	err := db.conn.QueryRowContext(ctx, query, uuid.NewString(), userID, endpoint, p256dh, auth).Scan(
		&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.CreatedAt, &sub.LastUsed,
	)
	if err != nil {
		return nil, wrapErr("UpsertPushSubscription", err, "user_id", userID)
	}
	return &sub, nil
}

// RemovePushSubscription removes one endpoint from a user's subscription
// set. Removing an already-absent endpoint is not an error: invalidation on
// a failed push can race with an explicit unsubscribe.
func (db *DB) RemovePushSubscription(ctx context.Context, userID, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`
	if _, err := db.conn.ExecContext(ctx, query, userID, endpoint); err != nil {
		return wrapErr("RemovePushSubscription", err, "user_id", userID)
	}
	return nil
}

// ListPushSubscriptions returns all registered endpoints for a user.
func (db *DB) ListPushSubscriptions(ctx context.Context, userID string) ([]*PushSubscription, error) {
	query := `
		SELECT id, user_id, endpoint, p256dh, auth, created_at, last_used
		FROM push_subscriptions
		WHERE user_id = $1
		ORDER BY created_at ASC`
	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr("ListPushSubscriptions", err, "user_id", userID)
	}
	defer rows.Close()

	var subs []*PushSubscription
	for rows.Next() {
		var sub PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.CreatedAt, &sub.LastUsed); err != nil {
			return nil, wrapErr("ListPushSubscriptions", err, "user_id", userID)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("ListPushSubscriptions", err, "user_id", userID)
	}
	return subs, nil
}

// MarkSubscriptionUsed records a successful delivery through an endpoint.
func (db *DB) MarkSubscriptionUsed(ctx context.Context, userID, endpoint string) error {
	query := `UPDATE push_subscriptions SET last_used = NOW() WHERE user_id = $1 AND endpoint = $2`
	if _, err := db.conn.ExecContext(ctx, query, userID, endpoint); err != nil {
		return wrapErr("MarkSubscriptionUsed", err, "user_id", userID)
	}
	return nil
}

// GetChannelSettings returns a user's configured delivery targets.
func (db *DB) GetChannelSettings(ctx context.Context, userID string) (*ChannelSettings, error) {
	query := `
		SELECT id, email, COALESCE(webhook_url, ''), COALESCE(discord_webhook_url, ''), push_enabled
		FROM users
		WHERE id = $1`
	var cs ChannelSettings
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&cs.UserID, &cs.Email, &cs.WebhookURL, &cs.DiscordWebhookURL, &cs.PushEnabled,
	)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "user", ID: userID}
	}
	if err != nil {
		return nil, wrapErr("GetChannelSettings", err, "user_id", userID)
	}
	return &cs, nil
}
