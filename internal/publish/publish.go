// Package publish pushes scored signals onto a Kafka topic for downstream
// consumers. Publishing is optional; a nil Publisher is a no-op.
package publish

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"signalscout/internal/models"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(broker, topic string) *Publisher {
	return &Publisher{writer: &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

// PublishSignal emits one signal keyed by channel so a consumer partition
// sees a channel's signals in order.
func (p *Publisher) PublishSignal(ctx context.Context, s *models.Signal) error {
	if p == nil {
		return nil
	}
	value, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(s.Channel),
		Value: value,
	})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
