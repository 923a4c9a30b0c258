package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &DB{conn: conn}, mock
}

func statsColumns() []string {
	return []string{"total", "unread", "recent", "sent", "clicked", "by_type_counts", "by_status_counts"}
}

func TestGetUserAlertStats(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows(statsColumns()).
		AddRow(int64(42), int64(7), int64(5), int64(40), int64(10),
			[]byte(`{"restock": 30, "price_drop": 12}`),
			[]byte(`{"sent": 40, "failed": 2}`))
	mock.ExpectQuery("WITH base AS").
		WithArgs("user-1", 7).
		WillReturnRows(rows)

	stats, err := db.GetUserAlertStats(context.Background(), "user-1", 7)
	if err != nil {
		t.Fatalf("GetUserAlertStats() error = %v", err)
	}

	if stats.Total != 42 || stats.Unread != 7 || stats.RecentAlerts != 5 {
		t.Errorf("counts = %d/%d/%d, want 42/7/5", stats.Total, stats.Unread, stats.RecentAlerts)
	}
	if stats.ByType["restock"] != 30 || stats.ByType["price_drop"] != 12 {
		t.Errorf("ByType = %v", stats.ByType)
	}
	if stats.ByStatus["sent"] != 40 || stats.ByStatus["failed"] != 2 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
	// 10 clicked / 40 sent = 25%
	if stats.ClickThroughRate != 25 {
		t.Errorf("ClickThroughRate = %v, want 25", stats.ClickThroughRate)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetUserAlertStats_EmptyUser(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows(statsColumns()).
		AddRow(int64(0), int64(0), int64(0), int64(0), int64(0),
			[]byte(`{}`), []byte(`{}`))
	mock.ExpectQuery("WITH base AS").
		WithArgs("user-empty", 7).
		WillReturnRows(rows)

	stats, err := db.GetUserAlertStats(context.Background(), "user-empty", 7)
	if err != nil {
		t.Fatalf("GetUserAlertStats() error = %v", err)
	}

	if stats.Total != 0 || stats.Unread != 0 || stats.RecentAlerts != 0 {
		t.Errorf("expected all-zero counts, got %+v", stats)
	}
	if stats.ByType == nil || len(stats.ByType) != 0 {
		t.Errorf("ByType = %v, want empty map", stats.ByType)
	}
	if stats.ByStatus == nil || len(stats.ByStatus) != 0 {
		t.Errorf("ByStatus = %v, want empty map", stats.ByStatus)
	}
	if stats.ClickThroughRate != 0 {
		t.Errorf("ClickThroughRate = %v, want 0 for zero sent", stats.ClickThroughRate)
	}
}

func TestGetUserAlertStats_StringCounts(t *testing.T) {
	// Some drivers hand numeric aggregates back as strings.
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows(statsColumns()).
		AddRow("12", "3", "not-a-number", "8", "2",
			[]byte(`{"restock": "5", "price_drop": 7}`),
			[]byte(`{}`))
	mock.ExpectQuery("WITH base AS").
		WithArgs("user-1", 7).
		WillReturnRows(rows)

	stats, err := db.GetUserAlertStats(context.Background(), "user-1", 7)
	if err != nil {
		t.Fatalf("GetUserAlertStats() error = %v", err)
	}

	if stats.Total != 12 || stats.Unread != 3 {
		t.Errorf("counts = %d/%d, want 12/3", stats.Total, stats.Unread)
	}
	// Unparseable values degrade to zero, not an error.
	if stats.RecentAlerts != 0 {
		t.Errorf("RecentAlerts = %d, want 0 for unparseable value", stats.RecentAlerts)
	}
	if stats.ClickThroughRate != 25 {
		t.Errorf("ClickThroughRate = %v, want 25", stats.ClickThroughRate)
	}
}

func TestGetUserAlertStats_InvalidUserID(t *testing.T) {
	db, _ := newMockDB(t)

	for _, userID := range []string{"", "   "} {
		if _, err := db.GetUserAlertStats(context.Background(), userID, 7); !errors.Is(err, ErrInvalidUserID) {
			t.Errorf("GetUserAlertStats(%q) error = %v, want ErrInvalidUserID", userID, err)
		}
	}
}

func TestGetUserAlertStats_QueryError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("WITH base AS").
		WithArgs("user-1", 7).
		WillReturnError(errors.New("connection reset"))

	_, err := db.GetUserAlertStats(context.Background(), "user-1", 7)
	if err == nil {
		t.Fatal("GetUserAlertStats() error = nil, want error")
	}
	var dbErr *Error
	if !errors.As(err, &dbErr) {
		t.Errorf("error type = %T, want *Error", err)
	}
}

func TestParseCountMap(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want map[string]int64
	}{
		{name: "empty input", raw: nil, want: map[string]int64{}},
		{name: "plain object", raw: []byte(`{"restock": 3}`), want: map[string]int64{"restock": 3}},
		{name: "string values", raw: []byte(`{"restock": "3"}`), want: map[string]int64{"restock": 3}},
		{name: "double encoded", raw: []byte(`"{\"restock\": 3}"`), want: map[string]int64{"restock": 3}},
		{name: "garbage", raw: []byte(`not json`), want: map[string]int64{}},
		{name: "bad entry dropped", raw: []byte(`{"restock": 3, "broken": 1.5}`), want: map[string]int64{"restock": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCountMap(tt.raw, "by_type", "user-1")
			if len(got) != len(tt.want) {
				t.Fatalf("parseCountMap() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseCountMap()[%s] = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}

func TestGetSystemStats(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("sent", int64(90)).
			AddRow("pending", int64(7)).
			AddRow("failed", int64(3)))
	mock.ExpectQuery("INTERVAL '24 hours'").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(25)))
	mock.ExpectQuery("FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(11)))
	mock.ExpectQuery("FROM watches").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(40)))

	stats, err := db.GetSystemStats(context.Background())
	if err != nil {
		t.Fatalf("GetSystemStats() error = %v", err)
	}

	if stats.TotalAlerts != 100 {
		t.Errorf("TotalAlerts = %d, want 100", stats.TotalAlerts)
	}
	if stats.AlertsByStatus["sent"] != 90 || stats.AlertsByStatus["failed"] != 3 {
		t.Errorf("AlertsByStatus = %v", stats.AlertsByStatus)
	}
	if stats.AlertsLast24h != 25 || stats.TotalUsers != 11 || stats.TotalWatches != 40 {
		t.Errorf("aggregates = %d/%d/%d", stats.AlertsLast24h, stats.TotalUsers, stats.TotalWatches)
	}
	if stats.CollectedAt.IsZero() {
		t.Error("CollectedAt not set")
	}
}
