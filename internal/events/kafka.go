package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"forecast-oversight/internal/domain"
	"forecast-oversight/internal/observability"
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers       []string
	UploadsTopic  string // defaults to TopicDatasetUploaded
	KPITopic      string // defaults to TopicKPIComputed
	SchemaVersion string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events synchronously, one writer per topic.
// Messages are keyed by dataset id so a dataset's events stay ordered.
type KafkaPublisher struct {
	uploads      messageWriter
	kpis         messageWriter
	uploadsTopic string
	kpiTopic     string
	version      string
	logger       *log.Logger
}

// NewKafkaPublisher creates a publisher writing to the configured brokers.
func NewKafkaPublisher(cfg KafkaConfig, logger *log.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	cfg = withDefaultTopics(cfg)

	return newKafkaPublisherWithWriters(cfg, logger,
		newKafkaWriter(cfg.Brokers, cfg.UploadsTopic),
		newKafkaWriter(cfg.Brokers, cfg.KPITopic)), nil
}

// writerBatchTimeout bounds how long a publish waits for its batch to flush.
const writerBatchTimeout = 5 * time.Millisecond

// newKafkaWriter builds a writer that flushes every message on its own.
// Each event is written while a request waits for its reply.
func newKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           writerBatchTimeout,
		WriteTimeout:           2 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

// newKafkaPublisherWithWriters wires the provided writers. It is used in tests.
func newKafkaPublisherWithWriters(cfg KafkaConfig, logger *log.Logger, uploads, kpis messageWriter) *KafkaPublisher {
	cfg = withDefaultTopics(cfg)
	return &KafkaPublisher{
		uploads:      uploads,
		kpis:         kpis,
		uploadsTopic: cfg.UploadsTopic,
		kpiTopic:     cfg.KPITopic,
		version:      cfg.SchemaVersion,
		logger:       logger,
	}
}

func withDefaultTopics(cfg KafkaConfig) KafkaConfig {
	if cfg.UploadsTopic == "" {
		cfg.UploadsTopic = TopicDatasetUploaded
	}
	if cfg.KPITopic == "" {
		cfg.KPITopic = TopicKPIComputed
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = "v1"
	}
	return cfg
}

// PublishDatasetUploaded writes a DatasetUploaded event.
func (p *KafkaPublisher) PublishDatasetUploaded(ctx context.Context, s domain.DatasetSummary) error {
	return p.publish(ctx, p.uploads, p.uploadsTopic, s.ID, NewDatasetUploaded(s))
}

// PublishKPIComputed writes a KPIComputed event.
func (p *KafkaPublisher) PublishKPIComputed(ctx context.Context, snap *domain.KPISnapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	return p.publish(ctx, p.kpis, p.kpiTopic, snap.DatasetID, NewKPIComputed(snap))
}

func (p *KafkaPublisher) publish(ctx context.Context, w messageWriter, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		observability.RecordEventPublished(topic, err)
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	err = w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "schema-version", Value: []byte(p.version)},
		},
	})
	observability.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("write %s event: %w", topic, err)
	}
	return nil
}

// Close closes both writers.
func (p *KafkaPublisher) Close() error {
	var errs []error
	if err := p.uploads.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s writer: %w", p.uploadsTopic, err))
	}
	if err := p.kpis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s writer: %w", p.kpiTopic, err))
	}
	if len(errs) > 0 && p.logger != nil {
		p.logger.Printf("kafka publisher close: %v", errors.Join(errs...))
	}
	return errors.Join(errs...)
}

var _ Publisher = (*KafkaPublisher)(nil)
