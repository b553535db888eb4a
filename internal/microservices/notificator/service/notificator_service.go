package service

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
)

// FeedService tails the order broadcast and logs each snapshot. It is the
// reference consumer for dashboards bound to the same exchange.
type FeedService struct {
	log *logger.Logger
}

func NewFeedService(log *logger.Logger) *FeedService {
	return &FeedService{log: log}
}

// Consume handles deliveries until ctx is done or the channel closes.
// Undecodable messages are rejected without requeue.
func (fs *FeedService) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				fs.log.Warn("feed_channel_closed", nil, nil)
				return
			}
			fs.handle(d)
		}
	}
}

func (fs *FeedService) handle(d amqp.Delivery) {
	var snap domain.OrderSnapshot
	if err := json.Unmarshal(d.Body, &snap); err != nil {
		fs.log.Warn("feed_message_invalid", err, map[string]any{"message_id": d.MessageId})
		_ = d.Nack(false, false)
		return
	}
	fs.log.Info("order_update", map[string]any{
		"message_id":     d.MessageId,
		"topic":          d.RoutingKey,
		"order_id":       snap.ID,
		"customer":       snap.CustomerName,
		"order_status":   string(snap.OrderStatus),
		"payment_status": string(snap.PaymentStatus),
		"total":          snap.TotalPrice,
	})
	_ = d.Ack(false)
}
