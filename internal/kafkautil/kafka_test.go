package kafkautil

import (
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    []string
	}{
		{name: "single broker", brokers: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "multiple brokers", brokers: "a:9092,b:9092", want: []string{"a:9092", "b:9092"}},
		{name: "whitespace trimmed", brokers: " a:9092 , b:9092 ", want: []string{"a:9092", "b:9092"}},
		{name: "empty", brokers: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBrokers(tt.brokers)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBrokers(%q) = %v, want %v", tt.brokers, got, tt.want)
			}
		})
	}
}

func TestValidateConsumerParams(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
		groupID string
		wantErr bool
	}{
		{name: "valid", brokers: "localhost:9092", topic: "alert.pending", groupID: "workers", wantErr: false},
		{name: "missing brokers", topic: "alert.pending", groupID: "workers", wantErr: true},
		{name: "missing topic", brokers: "localhost:9092", groupID: "workers", wantErr: true},
		{name: "missing group", brokers: "localhost:9092", topic: "alert.pending", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConsumerParams(tt.brokers, tt.topic, tt.groupID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConsumerParams() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProducerParams(t *testing.T) {
	if err := ValidateProducerParams("localhost:9092", "alert.pending"); err != nil {
		t.Errorf("ValidateProducerParams() error = %v", err)
	}
	if err := ValidateProducerParams("", "alert.pending"); err == nil {
		t.Error("ValidateProducerParams() accepted empty brokers")
	}
	if err := ValidateProducerParams("localhost:9092", ""); err == nil {
		t.Error("ValidateProducerParams() accepted empty topic")
	}
}

func TestNewReaderConfig(t *testing.T) {
	cfg := NewReaderConfig([]string{"localhost:9092"}, "alert.pending", "workers")

	if cfg.StartOffset != kafka.FirstOffset {
		t.Errorf("StartOffset = %v, want FirstOffset", cfg.StartOffset)
	}
	if cfg.CommitInterval != CommitInterval {
		t.Errorf("CommitInterval = %v, want %v", cfg.CommitInterval, CommitInterval)
	}
	if cfg.GroupID != "workers" {
		t.Errorf("GroupID = %q", cfg.GroupID)
	}
}
