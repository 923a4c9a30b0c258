package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const alertColumns = `id, user_id, product_id, retailer_id, type, priority, status, data,
	delivery_channels, retry_count, failure_reason, scheduled_for,
	sent_at, read_at, clicked_at, created_at, updated_at`

// CreateAlert inserts a new alert in pending status. The data payload is
// always persisted as a non-null JSON object.
func (db *DB) CreateAlert(ctx context.Context, alert *Alert) (*Alert, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = StatusPending
	}

	dataJSON, err := json.Marshal(alert.Data)
	if err != nil {
		return nil, wrapErr("CreateAlert", err, "alert_id", alert.ID)
	}

	query := `
		INSERT INTO alerts (id, user_id, product_id, retailer_id, type, priority, status, data,
			delivery_channels, retry_count, scheduled_for, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, NOW(), NOW())
		RETURNING ` + alertColumns
	row := db.conn.QueryRowContext(ctx, query,
		alert.ID, alert.UserID, alert.ProductID, alert.RetailerID,
		alert.Type, alert.Priority, alert.Status, dataJSON,
		pq.Array(alert.DeliveryChannels), alert.ScheduledFor,
	)

	created, err := scanAlert(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return nil, &NotFoundError{Entity: "user", ID: alert.UserID}
		}
		return nil, wrapErr("CreateAlert", err, "alert_id", alert.ID, "user_id", alert.UserID)
	}
	return created, nil
}

// GetAlert retrieves an alert by ID.
func (db *DB) GetAlert(ctx context.Context, alertID string) (*Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	alert, err := scanAlert(db.conn.QueryRowContext(ctx, query, alertID))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "alert", ID: alertID}
	}
	if err != nil {
		return nil, wrapErr("GetAlert", err, "alert_id", alertID)
	}
	return alert, nil
}

// ListAlertsByUser retrieves a user's alerts newest-first with pagination.
func (db *DB) ListAlertsByUser(ctx context.Context, userID string, limit, offset int) (*AlertListResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM alerts WHERE user_id = $1`
	if err := db.conn.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, wrapErr("ListAlertsByUser", err, "user_id", userID)
	}

	query := `SELECT ` + alertColumns + `
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := db.conn.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, wrapErr("ListAlertsByUser", err, "user_id", userID)
	}
	defer rows.Close()

	alerts, err := collectAlerts(rows)
	if err != nil {
		return nil, wrapErr("ListAlertsByUser", err, "user_id", userID)
	}
	return &AlertListResult{Alerts: alerts, Total: total, Limit: limit, Offset: offset}, nil
}

// GetAlertsSince returns a user's alerts created strictly after the given
// timestamp (exclusive lower bound), oldest first.
func (db *DB) GetAlertsSince(ctx context.Context, userID string, since time.Time) ([]*Alert, error) {
	query := `SELECT ` + alertColumns + `
		FROM alerts
		WHERE user_id = $1 AND created_at > $2
		ORDER BY created_at ASC`
	rows, err := db.conn.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, wrapErr("GetAlertsSince", err, "user_id", userID)
	}
	defer rows.Close()

	alerts, err := collectAlerts(rows)
	if err != nil {
		return nil, wrapErr("GetAlertsSince", err, "user_id", userID)
	}
	return alerts, nil
}

// MarkAsSent transitions an alert to sent and records delivery metadata.
// The channels recorded are the ones actually attempted.
func (db *DB) MarkAsSent(ctx context.Context, alertID string, channels []string) error {
	query := `
		UPDATE alerts
		SET status = $2,
		    delivery_channels = $3,
		    failure_reason = NULL,
		    sent_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1`
	return db.execAlertUpdate(ctx, "MarkAsSent", query, alertID, StatusSent, pq.Array(channels))
}

// MarkAsFailed transitions an alert to failed with a trimmed failure reason.
// When countRetry is set the retry counter increments, capped at MaxRetryCount.
func (db *DB) MarkAsFailed(ctx context.Context, alertID, reason string, countRetry bool) error {
	reason = strings.TrimSpace(reason)
	increment := 0
	if countRetry {
		increment = 1
	}
	query := fmt.Sprintf(`
		UPDATE alerts
		SET status = $2,
		    failure_reason = $3,
		    retry_count = LEAST(retry_count + $4, %d),
		    updated_at = NOW()
		WHERE id = $1`, MaxRetryCount)
	return db.execAlertUpdate(ctx, "MarkAsFailed", query, alertID, StatusFailed, reason, increment)
}

// MarkAsPending returns a failed alert to the delivery queue. Used by the
// retry sweep before republishing.
func (db *DB) MarkAsPending(ctx context.Context, alertID string) error {
	query := `
		UPDATE alerts
		SET status = $2,
		    updated_at = NOW()
		WHERE id = $1`
	return db.execAlertUpdate(ctx, "MarkAsPending", query, alertID, StatusPending)
}

// MarkAsRead sets read_at for a user's alert. Idempotent: re-reading keeps
// the original read_at and still succeeds. The stored status does not change.
func (db *DB) MarkAsRead(ctx context.Context, userID, alertID string) error {
	query := `
		UPDATE alerts
		SET read_at = COALESCE(read_at, NOW()),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2`
	result, err := db.conn.ExecContext(ctx, query, alertID, userID)
	if err != nil {
		return wrapErr("MarkAsRead", err, "alert_id", alertID)
	}
	return checkAffected(result, alertID)
}

// MarkAsClicked sets clicked_at for a user's alert.
func (db *DB) MarkAsClicked(ctx context.Context, userID, alertID string) error {
	query := `
		UPDATE alerts
		SET clicked_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2`
	result, err := db.conn.ExecContext(ctx, query, alertID, userID)
	if err != nil {
		return wrapErr("MarkAsClicked", err, "alert_id", alertID)
	}
	return checkAffected(result, alertID)
}

// GetRetryableAlerts selects failed alerts below the retry bound, oldest
// first, limited to one sweep batch. Scheduled alerts whose time has not
// arrived are skipped.
func (db *DB) GetRetryableAlerts(ctx context.Context, maxRetries, limit int) ([]*Alert, error) {
	if maxRetries > MaxRetryCount {
		maxRetries = MaxRetryCount
	}
	query := `SELECT ` + alertColumns + `
		FROM alerts
		WHERE status = 'failed'
		  AND retry_count < $1
		  AND (scheduled_for IS NULL OR scheduled_for <= NOW())
		ORDER BY created_at ASC
		LIMIT $2`
	rows, err := db.conn.QueryContext(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, wrapErr("GetRetryableAlerts", err)
	}
	defer rows.Close()

	alerts, err := collectAlerts(rows)
	if err != nil {
		return nil, wrapErr("GetRetryableAlerts", err)
	}
	return alerts, nil
}

// DeleteSentOlderThan purges sent alerts past the retention window.
// Returns the number of rows removed.
func (db *DB) DeleteSentOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	query := `
		DELETE FROM alerts
		WHERE status = 'sent'
		  AND sent_at < NOW() - make_interval(days => $1)`
	result, err := db.conn.ExecContext(ctx, query, retentionDays)
	if err != nil {
		return 0, wrapErr("DeleteSentOlderThan", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr("DeleteSentOlderThan", err)
	}
	return affected, nil
}

func (db *DB) execAlertUpdate(ctx context.Context, op, query string, alertID string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, append([]any{alertID}, args...)...)
	if err != nil {
		return wrapErr(op, err, "alert_id", alertID)
	}
	return checkAffected(result, alertID)
}

func checkAffected(result sql.Result, alertID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapErr("RowsAffected", err, "alert_id", alertID)
	}
	if affected == 0 {
		return &NotFoundError{Entity: "alert", ID: alertID}
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*Alert, error) {
	var alert Alert
	var dataJSON []byte
	var channels pq.StringArray
	var failureReason sql.NullString

	err := row.Scan(
		&alert.ID,
		&alert.UserID,
		&alert.ProductID,
		&alert.RetailerID,
		&alert.Type,
		&alert.Priority,
		&alert.Status,
		&dataJSON,
		&channels,
		&alert.RetryCount,
		&failureReason,
		&alert.ScheduledFor,
		&alert.SentAt,
		&alert.ReadAt,
		&alert.ClickedAt,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &alert.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert data: %w", err)
		}
	}
	alert.DeliveryChannels = []string(channels)
	alert.FailureReason = failureReason.String
	return &alert, nil
}

func collectAlerts(rows *sql.Rows) ([]*Alert, error) {
	var alerts []*Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
