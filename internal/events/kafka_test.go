package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"

	"forecast-oversight/internal/domain"
)

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func testPublisher(uploads, kpis *recordingWriter) *KafkaPublisher {
	return newKafkaPublisherWithWriters(KafkaConfig{Brokers: []string{"kafka:9092"}}, log.New(io.Discard, "", 0), uploads, kpis)
}

func TestKafkaPublisher_DatasetUploaded(t *testing.T) {
	uploads, kpis := &recordingWriter{}, &recordingWriter{}
	pub := testPublisher(uploads, kpis)

	summary := domain.DatasetSummary{
		ID:          "ds-1",
		Name:        "forecast.csv",
		UploadedAt:  1735689600000,
		RecordCount: 3,
		YearMin:     2021,
		YearMax:     2023,
		YearSpan:    3,
		RiskLevels:  []domain.RiskLevel{domain.RiskLow, domain.RiskHigh},
	}
	if err := pub.PublishDatasetUploaded(context.Background(), summary); err != nil {
		t.Fatalf("PublishDatasetUploaded failed: %v", err)
	}

	if len(uploads.msgs) != 1 || len(kpis.msgs) != 0 {
		t.Fatalf("expected 1 upload message and no kpi messages, got %d/%d", len(uploads.msgs), len(kpis.msgs))
	}
	msg := uploads.msgs[0]
	if string(msg.Key) != "ds-1" {
		t.Errorf("Key = %q, want ds-1", msg.Key)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "v1" {
		t.Errorf("unexpected headers: %+v", msg.Headers)
	}

	var got DatasetUploaded
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if diff := cmp.Diff(NewDatasetUploaded(summary), got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestKafkaPublisher_KPIComputed(t *testing.T) {
	uploads, kpis := &recordingWriter{}, &recordingWriter{}
	pub := testPublisher(uploads, kpis)

	snap := &domain.KPISnapshot{
		ID:         "snap-1",
		DatasetID:  "ds-1",
		ComputedAt: 1735689600500,
		YearMin:    2021,
		YearMax:    2023,
		Levels:     []domain.RiskLevel{},
		Summary:    domain.KPISummary{},
	}
	if err := pub.PublishKPIComputed(context.Background(), snap); err != nil {
		t.Fatalf("PublishKPIComputed failed: %v", err)
	}

	if len(kpis.msgs) != 1 {
		t.Fatalf("expected 1 kpi message, got %d", len(kpis.msgs))
	}

	var raw map[string]any
	if err := json.Unmarshal(kpis.msgs[0].Value, &raw); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	// Absent max risk is published as null, never 0
	if v, ok := raw["max_risk_score"]; !ok || v != nil {
		t.Errorf("max_risk_score = %v (present=%t), want null", v, ok)
	}
	if raw["snapshot_id"] != "snap-1" {
		t.Errorf("snapshot_id = %v", raw["snapshot_id"])
	}

	if err := pub.PublishKPIComputed(context.Background(), nil); err == nil {
		t.Error("expected error for nil snapshot")
	}
}

func TestKafkaPublisher_WriteErrorAndClose(t *testing.T) {
	uploads := &recordingWriter{err: errors.New("broker unavailable")}
	kpis := &recordingWriter{}
	pub := testPublisher(uploads, kpis)

	err := pub.PublishDatasetUploaded(context.Background(), domain.DatasetSummary{ID: "ds-1"})
	if err == nil {
		t.Fatal("expected write error")
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !uploads.closed || !kpis.closed {
		t.Error("expected both writers closed")
	}
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	if _, err := NewKafkaPublisher(KafkaConfig{}, nil); err == nil {
		t.Error("expected error without brokers")
	}

	pub, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	if err != nil {
		t.Fatalf("NewKafkaPublisher failed: %v", err)
	}
	if pub.uploadsTopic != TopicDatasetUploaded || pub.kpiTopic != TopicKPIComputed {
		t.Errorf("unexpected default topics: %s, %s", pub.uploadsTopic, pub.kpiTopic)
	}
	_ = pub.Close()
}

func TestNewKafkaWriter_FlushesEachMessage(t *testing.T) {
	w := newKafkaWriter([]string{"kafka-1:9092", "kafka-2:9092"}, TopicKPIComputed)
	defer w.Close()

	if w.Topic != TopicKPIComputed {
		t.Errorf("Topic = %q, want %q", w.Topic, TopicKPIComputed)
	}
	if w.BatchSize != 1 {
		t.Errorf("BatchSize = %d, want 1", w.BatchSize)
	}
	if w.BatchTimeout <= 0 || w.BatchTimeout > 10*time.Millisecond {
		t.Errorf("BatchTimeout = %v, want at most 10ms", w.BatchTimeout)
	}
	if w.Async {
		t.Error("writer must be synchronous so publish errors are reported")
	}
	if got := w.Addr.String(); got != "kafka-1:9092,kafka-2:9092" {
		t.Errorf("Addr = %q", got)
	}
}
