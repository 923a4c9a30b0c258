package database

import (
	"context"
	"database/sql"
)

// GetProduct retrieves a product by ID.
func (db *DB) GetProduct(ctx context.Context, productID string) (*Product, error) {
	query := `
		SELECT id, name, msrp, popularity, created_at, updated_at
		FROM products
		WHERE id = $1`
	var p Product
	err := db.conn.QueryRowContext(ctx, query, productID).Scan(
		&p.ID, &p.Name, &p.MSRP, &p.Popularity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "product", ID: productID}
	}
	if err != nil {
		return nil, wrapErr("GetProduct", err, "product_id", productID)
	}
	return &p, nil
}

// GetProductSignals gathers every aggregate input the insight engine needs
// for one product: the product row, recent alert velocity, purchase
// averages, and the price history capped to the lookback window.
func (db *DB) GetProductSignals(ctx context.Context, productID string, recentWindowDays, lookbackDays int) (*ProductSignals, error) {
	product, err := db.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	signals := &ProductSignals{Product: product}

	velocityQuery := `
		SELECT COUNT(*),
		       COALESCE(AVG(p.amount_paid), 0),
		       COALESCE(AVG(EXTRACT(EPOCH FROM (p.purchased_at - a.sent_at)) / 86400.0), 0)
		FROM alerts a
		LEFT JOIN purchases p ON p.alert_id = a.id
		WHERE a.product_id = $1
		  AND a.created_at >= NOW() - make_interval(days => $2)`
	err = db.conn.QueryRowContext(ctx, velocityQuery, productID, recentWindowDays).Scan(
		&signals.RecentAlertCount, &signals.AvgPaidPrice, &signals.AvgLeadTimeDays,
	)
	if err != nil {
		return nil, wrapErr("GetProductSignals", err, "product_id", productID)
	}

	historyQuery := `
		SELECT price, recorded_at
		FROM price_history
		WHERE product_id = $1
		  AND recorded_at >= NOW() - make_interval(days => $2)
		ORDER BY recorded_at ASC`
	rows, err := db.conn.QueryContext(ctx, historyQuery, productID, lookbackDays)
	if err != nil {
		return nil, wrapErr("GetProductSignals", err, "product_id", productID)
	}
	defer rows.Close()

	for rows.Next() {
		var point PricePoint
		if err := rows.Scan(&point.Price, &point.RecordedAt); err != nil {
			return nil, wrapErr("GetProductSignals", err, "product_id", productID)
		}
		signals.PriceHistory = append(signals.PriceHistory, point)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("GetProductSignals", err, "product_id", productID)
	}
	return signals, nil
}
