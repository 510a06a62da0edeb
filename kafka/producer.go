package kafka

import (
	"context"
	"encoding/json"

	"checkout-service/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ProducerAPI is the publishing surface the services depend on.
type ProducerAPI interface {
	SendOrderCreated(ctx context.Context, evt models.OrderCreatedEvent) error
	Close() error
}

// Producer publishes order events to Kafka.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a Producer for the given brokers and topic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("kafka producer initialized",
		zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &Producer{writer: w, logger: logger}
}

// SendOrderCreated publishes an order.created event keyed by order id.
func (p *Producer) SendOrderCreated(ctx context.Context, evt models.OrderCreatedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish order.created",
			zap.String("order_id", evt.OrderID), zap.Error(err))
		return err
	}
	p.logger.Info("order.created published",
		zap.String("order_id", evt.OrderID), zap.String("user_id", evt.UserID))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
