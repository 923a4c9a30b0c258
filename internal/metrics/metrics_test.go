package metrics

import (
	"testing"
	"time"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("api", nil)

	c.RecordReceived()
	c.RecordReceived()
	c.RecordDelivered(10 * time.Millisecond)
	c.RecordPublished()
	c.RecordFailure()

	snapshot := c.GetSnapshot()
	if snapshot.AlertsReceived != 2 {
		t.Errorf("AlertsReceived = %d, want 2", snapshot.AlertsReceived)
	}
	if snapshot.AlertsDelivered != 1 {
		t.Errorf("AlertsDelivered = %d, want 1", snapshot.AlertsDelivered)
	}
	if snapshot.AlertsPublished != 1 {
		t.Errorf("AlertsPublished = %d, want 1", snapshot.AlertsPublished)
	}
	if snapshot.DeliveryFailures != 1 {
		t.Errorf("DeliveryFailures = %d, want 1", snapshot.DeliveryFailures)
	}
	if snapshot.AvgDeliveryLatencyNs != float64(10*time.Millisecond) {
		t.Errorf("AvgDeliveryLatencyNs = %v", snapshot.AvgDeliveryLatencyNs)
	}
	if snapshot.ServiceName != "api" || snapshot.Status != "healthy" {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestCollector_CustomCounters(t *testing.T) {
	c := NewCollector("worker", nil)

	c.IncrementCustom("channel_web_push_sent")
	c.IncrementCustom("channel_web_push_sent")
	c.IncrementCustom("channel_email_sent")

	snapshot := c.GetSnapshot()
	if snapshot.CustomCounters["channel_web_push_sent"] != 2 {
		t.Errorf("custom counters = %v", snapshot.CustomCounters)
	}
	if snapshot.CustomCounters["channel_email_sent"] != 1 {
		t.Errorf("custom counters = %v", snapshot.CustomCounters)
	}
}

func TestCollector_AvgLatency(t *testing.T) {
	c := NewCollector("worker", nil)

	c.RecordDelivered(10 * time.Millisecond)
	c.RecordDelivered(30 * time.Millisecond)

	snapshot := c.GetSnapshot()
	want := float64(20 * time.Millisecond)
	if snapshot.AvgDeliveryLatencyNs != want {
		t.Errorf("AvgDeliveryLatencyNs = %v, want %v", snapshot.AvgDeliveryLatencyNs, want)
	}
}

// TestNoOp just exercises the discard recorder.
func TestNoOp(t *testing.T) {
	var r Recorder = NoOp{}
	r.RecordReceived()
	r.RecordDelivered(time.Millisecond)
	r.RecordPublished()
	r.RecordFailure()
	r.IncrementCustom("x")
}
