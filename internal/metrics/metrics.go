// Package metrics collects per-service operational counters and reports
// them to Redis so the API can serve a fleet-wide view.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the Redis key prefix for service metrics.
	KeyPrefix = "metrics:"
	// TTL is how long metrics stay in Redis if not refreshed.
	TTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing metrics to Redis.
	DefaultReportInterval = 30 * time.Second
)

// ServiceMetrics holds the point-in-time counters for one service instance.
type ServiceMetrics struct {
	ServiceName string    `json:"service_name"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // "healthy" or "unhealthy"

	// Counters (monotonically increasing since start)
	AlertsReceived   uint64 `json:"alerts_received"`
	AlertsDelivered  uint64 `json:"alerts_delivered"`
	AlertsPublished  uint64 `json:"alerts_published"`
	DeliveryFailures uint64 `json:"delivery_failures"`

	// Rates (per report interval)
	AlertsPerSecond float64 `json:"alerts_per_second"`

	// Latencies (averages in nanoseconds)
	AvgDeliveryLatencyNs float64 `json:"avg_delivery_latency_ns"`

	// Per-channel and other domain counters
	CustomCounters map[string]uint64 `json:"custom_counters,omitempty"`
}

// Recorder is the counter surface the delivery and HTTP paths write to.
type Recorder interface {
	RecordReceived()
	RecordDelivered(latency time.Duration)
	RecordPublished()
	RecordFailure()
	IncrementCustom(name string)
}

// NoOp is a Recorder that discards everything. Used when metrics reporting
// is disabled.
type NoOp struct{}

func (NoOp) RecordReceived()                 {}
func (NoOp) RecordDelivered(_ time.Duration) {}
func (NoOp) RecordPublished()                {}
func (NoOp) RecordFailure()                  {}
func (NoOp) IncrementCustom(string)          {}

// Collector collects counters for one service and periodically reports them
// to Redis.
type Collector struct {
	serviceName    string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	alertsReceived   atomic.Uint64
	alertsDelivered  atomic.Uint64
	alertsPublished  atomic.Uint64
	deliveryFailures atomic.Uint64

	// For rate calculation
	mu                 sync.Mutex
	lastReportTime     time.Time
	lastDeliveredCount uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	customMu       sync.RWMutex
	customCounters map[string]*atomic.Uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a metrics collector for a service.
func NewCollector(serviceName string, redisClient *redis.Client) *Collector {
	return &Collector{
		serviceName:    serviceName,
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: DefaultReportInterval,
		lastReportTime: time.Now().UTC(),
		customCounters: make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing metrics to Redis.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins the periodic metrics reporting to Redis.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.writeMetrics(context.Background()) // Final write
				return
			case <-c.stopCh:
				c.writeMetrics(context.Background()) // Final write
				return
			case <-ticker.C:
				c.writeMetrics(ctx)
			}
		}
	}()
}

// Stop stops the metrics reporting.
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

// RecordReceived increments the alerts received counter.
func (c *Collector) RecordReceived() {
	c.alertsReceived.Add(1)
}

// RecordDelivered increments the alerts delivered counter with latency.
func (c *Collector) RecordDelivered(latency time.Duration) {
	c.alertsDelivered.Add(1)
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

// RecordPublished increments the alerts published counter.
func (c *Collector) RecordPublished() {
	c.alertsPublished.Add(1)
}

// RecordFailure increments the delivery failures counter.
func (c *Collector) RecordFailure() {
	c.deliveryFailures.Add(1)
}

// IncrementCustom increments a custom counter by name.
func (c *Collector) IncrementCustom(name string) {
	c.customMu.RLock()
	counter, exists := c.customCounters[name]
	c.customMu.RUnlock()

	if !exists {
		c.customMu.Lock()
		// Double-check after acquiring write lock
		if counter, exists = c.customCounters[name]; !exists {
			counter = &atomic.Uint64{}
			c.customCounters[name] = counter
		}
		c.customMu.Unlock()
	}
	counter.Add(1)
}

// GetSnapshot returns current metrics without writing to Redis.
func (c *Collector) GetSnapshot() *ServiceMetrics {
	now := time.Now().UTC()
	delivered := c.alertsDelivered.Load()

	c.mu.Lock()
	elapsed := now.Sub(c.lastReportTime).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(delivered-c.lastDeliveredCount) / elapsed
	}
	c.mu.Unlock()

	var avgLatencyNs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(n)
	}

	c.customMu.RLock()
	customCounters := make(map[string]uint64, len(c.customCounters))
	for name, counter := range c.customCounters {
		customCounters[name] = counter.Load()
	}
	c.customMu.RUnlock()

	return &ServiceMetrics{
		ServiceName:          c.serviceName,
		StartedAt:            c.startedAt,
		LastUpdated:          now,
		Status:               "healthy",
		AlertsReceived:       c.alertsReceived.Load(),
		AlertsDelivered:      delivered,
		AlertsPublished:      c.alertsPublished.Load(),
		DeliveryFailures:     c.deliveryFailures.Load(),
		AlertsPerSecond:      rate,
		AvgDeliveryLatencyNs: avgLatencyNs,
		CustomCounters:       customCounters,
	}
}

// writeMetrics writes current metrics to Redis.
func (c *Collector) writeMetrics(ctx context.Context) {
	if c.redis == nil {
		return
	}

	snapshot := c.GetSnapshot()

	c.mu.Lock()
	c.lastReportTime = snapshot.LastUpdated
	c.lastDeliveredCount = snapshot.AlertsDelivered
	c.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics", "service", c.serviceName, "error", err)
		return
	}

	key := KeyPrefix + c.serviceName
	if err := c.redis.Set(ctx, key, data, TTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "service", c.serviceName, "error", err)
		return
	}
}

// Reader reads service metrics back from Redis.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a metrics reader.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// GetAll returns the metrics for every service currently reporting.
func (r *Reader) GetAll(ctx context.Context) (map[string]*ServiceMetrics, error) {
	keys, err := r.redis.Keys(ctx, KeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics keys: %w", err)
	}

	all := make(map[string]*ServiceMetrics, len(keys))
	for _, key := range keys {
		data, err := r.redis.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				continue // Expired between KEYS and GET
			}
			return nil, fmt.Errorf("failed to read metrics key %s: %w", key, err)
		}

		var m ServiceMetrics
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn("Skipping undecodable metrics entry", "key", key, "error", err)
			continue
		}
		all[m.ServiceName] = &m
	}
	return all, nil
}
