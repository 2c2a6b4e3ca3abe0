package event

import (
	"context"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/hydrospark/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const eventTypeHeader = "event_type"

// ProducerConfig holds Kafka producer settings
type ProducerConfig struct {
	Brokers  []string
	ClientID string
}

// NewSyncProducer connects a synchronous producer that waits for all
// in-sync replicas to acknowledge each message.
func NewSyncProducer(cfg ProducerConfig) (sarama.SyncProducer, error) {
	saramaConfig := sarama.NewConfig()
	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Retry.Backoff = 250 * time.Millisecond
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

// KafkaForwarder publishes every domain event to a Kafka topic. Messages are
// keyed by customer id so one customer's events stay ordered in a partition.
type KafkaForwarder struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaForwarder creates a forwarder writing to topic
func NewKafkaForwarder(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaForwarder {
	return &KafkaForwarder{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// EventTypes returns nil: the forwarder receives all events
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Handle sends the event and waits for the broker acknowledgement
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := f.message(event)
	if err != nil {
		return err
	}
	partition, offset, err := f.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", event.EventType(), f.topic, err)
	}
	f.logger.Debug("event forwarded to kafka",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (f *KafkaForwarder) message(event shared.DomainEvent) (*sarama.ProducerMessage, error) {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return nil, err
	}
	value, err := envelope.Encode()
	if err != nil {
		return nil, err
	}
	return &sarama.ProducerMessage{
		Topic: f.topic,
		Key:   sarama.StringEncoder(event.CustomerID().String()),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte(eventTypeHeader), Value: []byte(event.EventType())},
		},
		Timestamp: event.OccurredAt(),
	}, nil
}

// Close closes the underlying producer
func (f *KafkaForwarder) Close() error {
	return f.producer.Close()
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
