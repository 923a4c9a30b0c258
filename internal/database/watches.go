package database

import (
	"context"
	"strings"
	"time"
)

// GetWatchStats summarizes a user's watches and ranks the top watched
// products by alert volume.
func (db *DB) GetWatchStats(ctx context.Context, userID string, topN int) (*WatchStats, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	stats := &WatchStats{TopProducts: make([]*WatchedProduct, 0, topN)}

	countQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE active = true)
		FROM watches
		WHERE user_id = $1`
	if err := db.conn.QueryRowContext(ctx, countQuery, userID).Scan(&stats.TotalWatches, &stats.ActiveWatches); err != nil {
		return nil, wrapErr("GetWatchStats", err, "user_id", userID)
	}

	topQuery := `
		SELECT w.product_id, p.name, COUNT(a.id) AS alert_count
		FROM watches w
		JOIN products p ON p.id = w.product_id
		LEFT JOIN alerts a ON a.product_id = w.product_id AND a.user_id = w.user_id
		WHERE w.user_id = $1 AND w.active = true
		GROUP BY w.product_id, p.name
		ORDER BY alert_count DESC, w.product_id ASC
		LIMIT $2`
	rows, err := db.conn.QueryContext(ctx, topQuery, userID, topN)
	if err != nil {
		return nil, wrapErr("GetWatchStats", err, "user_id", userID)
	}
	defer rows.Close()

	for rows.Next() {
		var wp WatchedProduct
		if err := rows.Scan(&wp.ProductID, &wp.ProductName, &wp.AlertCount); err != nil {
			return nil, wrapErr("GetWatchStats", err, "user_id", userID)
		}
		stats.TopProducts = append(stats.TopProducts, &wp)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("GetWatchStats", err, "user_id", userID)
	}
	return stats, nil
}

// GetWatchedProductIDs returns the product ids a user actively watches,
// newest watch first, capped at limit.
func (db *DB) GetWatchedProductIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	query := `
		SELECT product_id
		FROM watches
		WHERE user_id = $1 AND active = true
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := db.conn.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, wrapErr("GetWatchedProductIDs", err, "user_id", userID)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("GetWatchedProductIDs", err, "user_id", userID)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("GetWatchedProductIDs", err, "user_id", userID)
	}
	return ids, nil
}

// GetWatchesUpdatedSince returns a user's watches changed strictly after the
// given timestamp.
func (db *DB) GetWatchesUpdatedSince(ctx context.Context, userID string, since time.Time) ([]*Watch, error) {
	query := `
		SELECT id, user_id, product_id, COALESCE(retailer_id, ''), max_price, active, created_at, updated_at
		FROM watches
		WHERE user_id = $1 AND updated_at > $2
		ORDER BY updated_at ASC`
	rows, err := db.conn.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, wrapErr("GetWatchesUpdatedSince", err, "user_id", userID)
	}
	defer rows.Close()

	var watches []*Watch
	for rows.Next() {
		var w Watch
		if err := rows.Scan(&w.ID, &w.UserID, &w.ProductID, &w.RetailerID, &w.MaxPrice, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, wrapErr("GetWatchesUpdatedSince", err, "user_id", userID)
		}
		watches = append(watches, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("GetWatchesUpdatedSince", err, "user_id", userID)
	}
	return watches, nil
}
