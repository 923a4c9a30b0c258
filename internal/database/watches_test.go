package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGetWatchStats(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("FROM watches").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "active"}).AddRow(int64(6), int64(4)))

	topRows := sqlmock.NewRows([]string{"product_id", "name", "alert_count"}).
		AddRow("prod-2", "Elite Trainer Box", int64(9)).
		AddRow("prod-1", "Booster Box", int64(3))
	mock.ExpectQuery("ORDER BY alert_count DESC").
		WithArgs("user-1", 5).
		WillReturnRows(topRows)

	stats, err := db.GetWatchStats(context.Background(), "user-1", 5)
	if err != nil {
		t.Fatalf("GetWatchStats() error = %v", err)
	}
	if stats.TotalWatches != 6 || stats.ActiveWatches != 4 {
		t.Errorf("counts = %d/%d, want 6/4", stats.TotalWatches, stats.ActiveWatches)
	}
	if len(stats.TopProducts) != 2 || stats.TopProducts[0].ProductID != "prod-2" {
		t.Errorf("TopProducts = %v, want prod-2 ranked first", stats.TopProducts)
	}
}

func TestGetWatchStats_InvalidUserID(t *testing.T) {
	db, _ := newMockDB(t)
	if _, err := db.GetWatchStats(context.Background(), "", 5); !errors.Is(err, ErrInvalidUserID) {
		t.Errorf("error = %v, want ErrInvalidUserID", err)
	}
}

func TestGetWatchedProductIDs(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"product_id"}).
		AddRow("prod-3").
		AddRow("prod-1")
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("user-1", 20).
		WillReturnRows(rows)

	ids, err := db.GetWatchedProductIDs(context.Background(), "user-1", 20)
	if err != nil {
		t.Fatalf("GetWatchedProductIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "prod-3" {
		t.Errorf("ids = %v, want newest watch first", ids)
	}
}

func TestGetWatchesUpdatedSince(t *testing.T) {
	db, mock := newMockDB(t)
	since := time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)
	maxPrice := 120.0

	rows := sqlmock.NewRows([]string{"id", "user_id", "product_id", "retailer_id", "max_price", "active", "created_at", "updated_at"}).
		AddRow("watch-1", "user-1", "prod-1", "", maxPrice, true, since.Add(-time.Hour), since.Add(time.Minute))
	mock.ExpectQuery("updated_at > ").
		WithArgs("user-1", since).
		WillReturnRows(rows)

	watches, err := db.GetWatchesUpdatedSince(context.Background(), "user-1", since)
	if err != nil {
		t.Fatalf("GetWatchesUpdatedSince() error = %v", err)
	}
	if len(watches) != 1 || watches[0].ID != "watch-1" {
		t.Fatalf("watches = %v", watches)
	}
	if watches[0].MaxPrice == nil || *watches[0].MaxPrice != 120 {
		t.Errorf("MaxPrice = %v, want 120", watches[0].MaxPrice)
	}
}
