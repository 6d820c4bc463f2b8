package runtime

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestPrometheusRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func TestDLQMetricsRecordAndSnapshot(t *testing.T) {
	metrics := NewDLQMetrics(newTestPrometheusRegistry())
	if err := metrics.Register(); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	metrics.RecordMessageToDLQ("topic.a", "dispatcher", 3, 5*time.Second)
	metrics.RecordMessageToDLQ("topic.a", "dispatcher", 1, time.Second)
	metrics.RecordMessageToDLQ("topic.b", "dispatcher", 2, time.Minute)

	snapshot := metrics.GetSnapshot()
	if snapshot.TotalMessages != 3 {
		t.Fatalf("expected 3 current messages, got %d", snapshot.TotalMessages)
	}
	if len(snapshot.TopicMetrics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(snapshot.TopicMetrics))
	}

	topicA := metrics.GetTopicMetrics("topic.a")
	if topicA == nil {
		t.Fatal("missing topic.a metrics")
	}
	if topicA.MessagesReceived != 2 {
		t.Fatalf("expected 2 received, got %d", topicA.MessagesReceived)
	}
	if topicA.AvgAttempts != 2 {
		t.Fatalf("expected average attempts 2, got %f", topicA.AvgAttempts)
	}
}

func TestDLQMetricsReplayAndPurge(t *testing.T) {
	metrics := NewDLQMetrics(newTestPrometheusRegistry())

	metrics.RecordMessageToDLQ("topic.a", "dispatcher", 3, time.Second)
	metrics.RecordMessageToDLQ("topic.a", "dispatcher", 3, time.Second)
	metrics.RecordMessageToDLQ("topic.a", "dispatcher", 3, time.Second)

	metrics.RecordMessageReplayed("topic.a")
	topicA := metrics.GetTopicMetrics("topic.a")
	if topicA.MessagesCurrent != 2 {
		t.Fatalf("expected 2 after replay, got %d", topicA.MessagesCurrent)
	}
	if topicA.MessagesReplayed != 1 {
		t.Fatalf("expected 1 replayed, got %d", topicA.MessagesReplayed)
	}

	metrics.RecordMessagesPurged("topic.a", 5)
	topicA = metrics.GetTopicMetrics("topic.a")
	if topicA.MessagesCurrent != 0 {
		t.Fatalf("purge must clamp at zero, got %d", topicA.MessagesCurrent)
	}
	if topicA.MessagesPurged != 5 {
		t.Fatalf("expected 5 purged, got %d", topicA.MessagesPurged)
	}
}

func TestDLQMetricsSetCurrentCount(t *testing.T) {
	metrics := NewDLQMetrics(newTestPrometheusRegistry())

	metrics.SetCurrentCount("topic.a", 17)
	if got := metrics.GetTopicMetrics("topic.a").MessagesCurrent; got != 17 {
		t.Fatalf("expected 17, got %d", got)
	}
}

func TestDLQMetricsRegisterIdempotent(t *testing.T) {
	registry := newTestPrometheusRegistry()
	metrics := NewDLQMetrics(registry)

	if err := metrics.Register(); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := metrics.Register(); err != nil {
		t.Fatalf("second register failed: %v", err)
	}
}

func TestDLQMetricsReset(t *testing.T) {
	metrics := NewDLQMetrics(newTestPrometheusRegistry())
	metrics.RecordMessageToDLQ("topic.a", "dispatcher", 1, time.Second)

	metrics.Reset()

	if got := metrics.GetTopicMetrics("topic.a"); got != nil {
		t.Fatalf("expected no metrics after reset, got %+v", got)
	}
}

func TestDLQMetricsSnapshotIsACopy(t *testing.T) {
	metrics := NewDLQMetrics(newTestPrometheusRegistry())
	metrics.RecordMessageToDLQ("topic.a", "dispatcher", 1, time.Second)

	snapshot := metrics.GetSnapshot()
	snapshot.TopicMetrics["topic.a"].MessagesCurrent = 99

	if got := metrics.GetTopicMetrics("topic.a").MessagesCurrent; got != 1 {
		t.Fatalf("snapshot mutation leaked into live metrics: %d", got)
	}
}

func TestIngressMetricsRegisterIdempotent(t *testing.T) {
	registry := newTestPrometheusRegistry()
	metrics := NewIngressMetrics(registry)

	if err := metrics.Register(); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := metrics.Register(); err != nil {
		t.Fatalf("second register failed: %v", err)
	}
}

func TestIngressMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *IngressMetrics
	metrics.recordReceived("taskCreated", 128)
	metrics.recordRejected("normalize")
	metrics.recordPublishFailure("taskCreated")
}
