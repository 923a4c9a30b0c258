// Package config provides configuration parsing and validation for boosterbeacon.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration parameters for the service.
type Config struct {
	HTTPPort          string
	PostgresDSN       string
	RedisAddr         string
	KafkaBrokers      string
	AlertPendingTopic string
	ConsumerGroupID   string

	// VAPID key pair for web push. Push delivery is disabled when empty.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	// Resend credentials for email delivery. Email sends fail when empty.
	ResendAPIKey string
	EmailFrom    string

	// Delivery tuning.
	SweepInterval   time.Duration
	SweepBatchSize  int
	SweepMaxRetries int
	RetentionDays   int

	// Read-model tuning.
	RecentWindowDays     int
	PriceLookbackDays    int
	SystemStatsCacheTTL  time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.AlertPendingTopic == "" {
		return fmt.Errorf("alert-pending-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("sweep-batch-size must be positive")
	}
	if c.SweepMaxRetries < 0 {
		return fmt.Errorf("sweep-max-retries cannot be negative")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention-days must be positive")
	}
	if c.RecentWindowDays <= 0 {
		return fmt.Errorf("recent-window-days must be positive")
	}
	if c.PriceLookbackDays <= 0 {
		return fmt.Errorf("price-lookback-days must be positive")
	}
	return nil
}
