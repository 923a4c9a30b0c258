// Package cache provides tests for the TTL cache helper.
package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	getHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, ErrMiss
	}
	s.getHits++
	return data, nil
}

func (s *fakeStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

type statsPayload struct {
	Total int `json:"total"`
}

// TestWithCache_MissThenHit verifies produce runs once and subsequent reads
// come from the store.
func TestWithCache_MissThenHit(t *testing.T) {
	store := newFakeStore()
	c := New(store, SystemStatsTTL)
	ctx := context.Background()

	produced := 0
	produce := func(ctx context.Context) (statsPayload, error) {
		produced++
		return statsPayload{Total: 42}, nil
	}

	got, err := WithCache(ctx, c, "stats:system", produce)
	if err != nil {
		t.Fatalf("WithCache() error = %v", err)
	}
	if got.Total != 42 || produced != 1 {
		t.Fatalf("first read = %+v, produced = %d", got, produced)
	}
	if store.ttls["stats:system"] != 5*time.Minute {
		t.Errorf("stored TTL = %v, want the 5m system stats TTL", store.ttls["stats:system"])
	}

	got, err = WithCache(ctx, c, "stats:system", produce)
	if err != nil {
		t.Fatalf("WithCache() error = %v", err)
	}
	if got.Total != 42 || produced != 1 {
		t.Errorf("second read = %+v, produced = %d, want cached value without reproducing", got, produced)
	}
}

// TestWithCache_ProduceError verifies producer failures propagate.
func TestWithCache_ProduceError(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Minute)

	wantErr := errors.New("store down")
	_, err := WithCache(context.Background(), c, "k", func(ctx context.Context) (statsPayload, error) {
		return statsPayload{}, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("WithCache() error = %v, want %v", err, wantErr)
	}
}

// TestWithCache_StoreFailuresDegrade verifies a broken store never fails the
// read path.
func TestWithCache_StoreFailuresDegrade(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")
	c := New(store, time.Minute)

	got, err := WithCache(context.Background(), c, "k", func(ctx context.Context) (statsPayload, error) {
		return statsPayload{Total: 7}, nil
	})
	if err != nil {
		t.Fatalf("WithCache() error = %v, want graceful degradation", err)
	}
	if got.Total != 7 {
		t.Errorf("value = %+v, want produced value", got)
	}
}

// TestWithCache_CorruptEntryRecomputed verifies undecodable cache entries
// are discarded and recomputed.
func TestWithCache_CorruptEntryRecomputed(t *testing.T) {
	store := newFakeStore()
	store.data["k"] = []byte("{not json")
	c := New(store, time.Minute)

	got, err := WithCache(context.Background(), c, "k", func(ctx context.Context) (statsPayload, error) {
		return statsPayload{Total: 9}, nil
	})
	if err != nil {
		t.Fatalf("WithCache() error = %v", err)
	}
	if got.Total != 9 {
		t.Errorf("value = %+v, want recomputed value", got)
	}
}
