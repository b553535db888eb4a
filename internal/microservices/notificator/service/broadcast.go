package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/connections/rabbitmq"
	"restaurant-chatbot/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, exchange, key string, m rabbitmq.Message) error
}

// RabbitBroadcaster fans order snapshots out to every bound dashboard queue.
type RabbitBroadcaster struct {
	pub      publisher
	exchange string
	log      *logger.Logger
}

func NewRabbitBroadcaster(pub publisher, exchange string, log *logger.Logger) *RabbitBroadcaster {
	return &RabbitBroadcaster{pub: pub, exchange: exchange, log: log}
}

func (b *RabbitBroadcaster) Publish(ctx context.Context, topic string, snap domain.OrderSnapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	if err := b.pub.Publish(ctx, b.exchange, topic, rabbitmq.Message{
		ID:          id,
		ContentType: "application/json",
		Headers:     map[string]any{"topic": topic, "order_status": string(snap.OrderStatus)},
		Body:        body,
		Persistent:  true,
	}); err != nil {
		return err
	}
	b.log.Debug("snapshot_published", map[string]any{"message_id": id, "order_id": snap.ID, "topic": topic})
	return nil
}

// LogBroadcaster is used when RabbitMQ is disabled.
type LogBroadcaster struct{ log *logger.Logger }

func NewLogBroadcaster(log *logger.Logger) *LogBroadcaster { return &LogBroadcaster{log: log} }

func (b *LogBroadcaster) Publish(_ context.Context, topic string, snap domain.OrderSnapshot) error {
	b.log.Info("snapshot_broadcast", map[string]any{
		"topic":          topic,
		"order_id":       snap.ID,
		"order_status":   string(snap.OrderStatus),
		"payment_status": string(snap.PaymentStatus),
	})
	return nil
}
