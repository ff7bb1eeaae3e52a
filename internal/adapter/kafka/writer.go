// Package kafka publishes artifact notifications to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/precip-ingest-service/internal/config"
	"github.com/couchcryptid/precip-ingest-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per ingested instant.
// It implements pipeline.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured artifact topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish sends the event keyed by source and instant, so every notification
// for one source lands on the same partition in order.
func (p *Publisher) Publish(ctx context.Context, event domain.IngestEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Key(), err)
	}
	p.logger.Debug("artifact notification sent", "key", event.Key())
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an IngestEvent into a Kafka message.
func serializeToMessage(event domain.IngestEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize ingest event: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "source", Value: []byte(event.Source)},
		{Key: "ingested_at", Value: []byte(event.IngestedAt.Format(time.RFC3339))},
	}
	if event.RunID != "" {
		headers = append(headers, kafkago.Header{Key: "run_id", Value: []byte(event.RunID)})
	}
	return kafkago.Message{
		Key:     []byte(event.Key()),
		Value:   data,
		Headers: headers,
	}, nil
}
