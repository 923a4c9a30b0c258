// Package handlers provides HTTP handlers for the BoosterBeacon API.
package handlers

import (
	"boosterbeacon/internal/cache"
	"boosterbeacon/internal/metrics"
)

// Handlers wraps dependencies for HTTP handlers.
type Handlers struct {
	db             Repository
	dashboard      DashboardService
	producer       AlertPublisher
	breakers       BreakerMetrics
	serviceMetrics ServiceMetricsReader
	statsCache     *cache.Cache
	metrics        metrics.Recorder
	vapidPublicKey string
}

// Option is a functional option for configuring Handlers.
type Option func(*Handlers)

// WithMetrics sets a custom metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(h *Handlers) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithVAPIDPublicKey sets the public key served to push clients.
func WithVAPIDPublicKey(key string) Option {
	return func(h *Handlers) {
		h.vapidPublicKey = key
	}
}

// WithServiceMetricsReader sets the reader backing the service metrics
// endpoint.
func WithServiceMetricsReader(r ServiceMetricsReader) Option {
	return func(h *Handlers) {
		h.serviceMetrics = r
	}
}

// WithBreakerMetrics sets the breaker group surfaced on the metrics endpoint.
func WithBreakerMetrics(b BreakerMetrics) Option {
	return func(h *Handlers) {
		h.breakers = b
	}
}

// WithStatsCache sets the cache backing the system stats endpoint.
func WithStatsCache(c *cache.Cache) Option {
	return func(h *Handlers) {
		h.statsCache = c
	}
}

// NewHandlers creates a handlers instance. Metrics default to a no-op
// recorder so callers never need nil checks.
func NewHandlers(db Repository, dashboard DashboardService, producer AlertPublisher, opts ...Option) *Handlers {
	h := &Handlers{
		db:        db,
		dashboard: dashboard,
		producer:  producer,
		metrics:   metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
