package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// slowQueryThreshold is the observability bound for the stats round trip.
// Exceeding it logs a warning, never an error.
const slowQueryThreshold = time.Second

// userStatsQuery computes every per-user aggregate in one round trip. The
// three CTEs scan the same filtered row set and are cross-joined into a
// single result row, so exactly one network round trip occurs.
const userStatsQuery = `
WITH base AS (
    SELECT
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE read_at IS NULL) AS unread,
        COUNT(*) FILTER (WHERE created_at >= NOW() - make_interval(days => $2)) AS recent,
        COUNT(*) FILTER (WHERE status = 'sent') AS sent,
        COUNT(*) FILTER (WHERE clicked_at IS NOT NULL) AS clicked
    FROM alerts
    WHERE user_id = $1
), by_type AS (
    SELECT COALESCE(json_object_agg(t.type, t.cnt), '{}'::json) AS counts
    FROM (SELECT type, COUNT(*) AS cnt FROM alerts WHERE user_id = $1 GROUP BY type) t
), by_status AS (
    SELECT COALESCE(json_object_agg(s.status, s.cnt), '{}'::json) AS counts
    FROM (SELECT status, COUNT(*) AS cnt FROM alerts WHERE user_id = $1 GROUP BY status) s
)
SELECT base.total, base.unread, base.recent, base.sent, base.clicked,
       by_type.counts, by_status.counts
FROM base CROSS JOIN by_type CROSS JOIN by_status
`

// GetUserAlertStats computes the aggregated alert stats for one user with a
// single query. A user with zero alert rows gets the all-zero shape, never
// nil. recentWindowDays bounds the trailing "recent" window.
func (db *DB) GetUserAlertStats(ctx context.Context, userID string, recentWindowDays int) (*UserAlertStats, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, userStatsQuery, userID, recentWindowDays)

	// Counts are scanned loosely: depending on the driver, numeric
	// aggregates can arrive as int64, []byte, or string.
	var total, unread, recent, sent, clicked any
	var byTypeRaw, byStatusRaw []byte
	if err := row.Scan(&total, &unread, &recent, &sent, &clicked, &byTypeRaw, &byStatusRaw); err != nil {
		return nil, wrapErr("GetUserAlertStats", err, "user_id", userID)
	}

	if elapsed := time.Since(start); elapsed > slowQueryThreshold {
		slog.Warn("Slow user alert stats query",
			"user_id", userID,
			"elapsed", elapsed,
		)
	}

	stats := &UserAlertStats{
		Total:        coerceCount(total, "total", userID),
		Unread:       coerceCount(unread, "unread", userID),
		RecentAlerts: coerceCount(recent, "recent", userID),
		ByType:       parseCountMap(byTypeRaw, "by_type", userID),
		ByStatus:     parseCountMap(byStatusRaw, "by_status", userID),
	}

	sentCount := coerceCount(sent, "sent", userID)
	clickedCount := coerceCount(clicked, "clicked", userID)
	if sentCount > 0 {
		stats.ClickThroughRate = round2(100 * float64(clickedCount) / float64(sentCount))
	}

	return stats, nil
}

// GetSystemStats aggregates system-wide counters. Callers cache the result;
// this always hits the store.
func (db *DB) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{
		AlertsByStatus: make(map[string]int64),
		CollectedAt:    time.Now().UTC(),
	}

	statusQuery := `SELECT status, COUNT(*) FROM alerts GROUP BY status`
	rows, err := db.conn.QueryContext(ctx, statusQuery)
	if err != nil {
		return nil, wrapErr("GetSystemStats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, wrapErr("GetSystemStats", err)
		}
		stats.AlertsByStatus[status] = count
		stats.TotalAlerts += count
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("GetSystemStats", err)
	}

	last24hQuery := `SELECT COUNT(*) FROM alerts WHERE created_at >= NOW() - INTERVAL '24 hours'`
	if err := db.conn.QueryRowContext(ctx, last24hQuery).Scan(&stats.AlertsLast24h); err != nil {
		return nil, wrapErr("GetSystemStats", err)
	}

	usersQuery := `SELECT COUNT(*) FROM users`
	if err := db.conn.QueryRowContext(ctx, usersQuery).Scan(&stats.TotalUsers); err != nil {
		return nil, wrapErr("GetSystemStats", err)
	}

	watchesQuery := `SELECT COUNT(*) FROM watches`
	if err := db.conn.QueryRowContext(ctx, watchesQuery).Scan(&stats.TotalWatches); err != nil {
		return nil, wrapErr("GetSystemStats", err)
	}

	return stats, nil
}

// coerceCount converts a loosely-typed aggregate value to int64. Unparseable
// values are logged and treated as zero rather than failing the whole read.
func coerceCount(v any, field, userID string) int64 {
	switch value := v.(type) {
	case nil:
		return 0
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	case []byte:
		return parseCountString(string(value), field, userID)
	case string:
		return parseCountString(value, field, userID)
	default:
		slog.Warn("Unexpected aggregate value type",
			"field", field,
			"user_id", userID,
			"type", fmt.Sprintf("%T", v),
		)
		return 0
	}
}

func parseCountString(s, field, userID string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		slog.Warn("Unparseable aggregate count",
			"field", field,
			"user_id", userID,
			"value", s,
		)
		return 0
	}
	return n
}

// parseCountMap parses a json_object_agg result into a key -> count map.
// Values may arrive as JSON numbers or strings; any unparseable entry is
// logged and dropped, never a crash.
func parseCountMap(raw []byte, field, userID string) map[string]int64 {
	counts := make(map[string]int64)
	if len(raw) == 0 {
		return counts
	}

	var entries map[string]json.Number
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.UseNumber()
	if err := decoder.Decode(&entries); err != nil {
		// Some drivers hand back the aggregate as a JSON-encoded string;
		// unwrap one level and retry before giving up.
		var nested string
		if err2 := json.Unmarshal(raw, &nested); err2 == nil {
			return parseCountMap([]byte(nested), field, userID)
		}
		slog.Warn("Unparseable grouped aggregate",
			"field", field,
			"user_id", userID,
			"error", err,
		)
		return counts
	}

	for key, num := range entries {
		n, err := num.Int64()
		if err != nil {
			slog.Warn("Unparseable grouped aggregate entry",
				"field", field,
				"user_id", userID,
				"key", key,
				"value", num.String(),
			)
			continue
		}
		counts[key] = n
	}
	return counts
}

// round2 rounds to two decimals with half-away-from-zero semantics.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
