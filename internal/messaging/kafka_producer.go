package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
)

// Publisher emits ledger events to downstream consumers.
type Publisher interface {
	PublishStockEvent(ctx context.Context, event models.StockEvent) error
	Close() error
}

// KafkaProducer publishes stock events keyed by item id.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer builds a producer for the given brokers and topic.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}

	return &KafkaProducer{writer: writer}
}

// PublishStockEvent writes a single event to the topic.
func (p *KafkaProducer) PublishStockEvent(ctx context.Context, event models.StockEvent) error {
	msg, err := encodeStockEvent(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write stock event to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

func encodeStockEvent(event models.StockEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal stock event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.ItemID),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

// PublishStockEvent implements Publisher.
func (NopPublisher) PublishStockEvent(context.Context, models.StockEvent) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
