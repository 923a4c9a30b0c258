// Package consumer consumes alert.pending events from Kafka.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"boosterbeacon/internal/events"
	"boosterbeacon/internal/kafkautil"
)

// Consumer wraps a Kafka reader and decodes alert pending events.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a Kafka consumer for the given brokers, topic, and
// group. The consumer is configured for at-least-once delivery; offsets are
// committed only after processing.
func NewConsumer(brokers, topic, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)
	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	reader := kafka.NewReader(kafkautil.NewReaderConfig(brokerList, topic, groupID))
	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadMessage reads the next message and decodes it as an AlertPending.
// A decode failure still returns the raw message so the caller can commit
// past the poison record.
func (c *Consumer) ReadMessage(ctx context.Context) (*events.AlertPending, *kafka.Message, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	var pending events.AlertPending
	if err := json.Unmarshal(msg.Value, &pending); err != nil {
		return nil, &msg, fmt.Errorf("failed to unmarshal alert pending event: %w", err)
	}
	return &pending, &msg, nil
}

// CommitMessage commits the offset for the given message. Call after the
// message has been fully processed.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	return nil
}
