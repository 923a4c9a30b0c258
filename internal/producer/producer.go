// Package producer publishes alert.pending events to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"boosterbeacon/internal/events"
	"boosterbeacon/internal/kafkautil"
)

// Producer wraps a Kafka writer and publishes alert pending events.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a Kafka producer for the given brokers and topic. The
// producer is configured for at-least-once delivery with synchronous writes,
// keyed by user_id so one user's alerts stay ordered within a partition.
func NewProducer(brokers, topic string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)
	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
	)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Key-based partitioning (hashes the message key)
		WriteTimeout: kafkautil.WriteTimeout,
		RequiredAcks: kafka.RequireOne, // At-least-once semantics (waits for leader ack)
		Async:        false,            // Synchronous writes for reliability and error handling
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish serializes the event to JSON and writes it to Kafka keyed by
// user_id.
func (p *Producer) Publish(ctx context.Context, pending *events.AlertPending) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		slog.Error("Failed to marshal alert pending event",
			"alert_id", pending.AlertID,
			"user_id", pending.UserID,
			"error", err,
		)
		return fmt.Errorf("failed to marshal alert pending event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(pending.UserID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"alert_id", pending.AlertID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Info("Published alert pending event",
		"alert_id", pending.AlertID,
		"user_id", pending.UserID,
		"type", pending.Type,
	)
	return nil
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	return nil
}
