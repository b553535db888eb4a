package notificator

import (
	"context"
	"fmt"

	"restaurant-chatbot/internal/common/config"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/connections/rabbitmq"
	"restaurant-chatbot/internal/domain"
	"restaurant-chatbot/internal/microservices/notificator/service"
)

type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

type Broadcaster interface {
	Publish(ctx context.Context, topic string, snap domain.OrderSnapshot) error
}

type Service struct {
	Notifier    Notifier
	Broadcaster Broadcaster
}

// New picks the outbound channels. Without WhatsApp credentials replies are
// only logged; without a RabbitMQ client snapshots are only logged.
func New(wa config.WhatsApp, mq *rabbitmq.Client, exchange string, log *logger.Logger) (*Service, error) {
	s := &Service{}
	if wa.AccessToken != "" && wa.PhoneNumberID != "" {
		s.Notifier = service.NewWhatsApp(wa.APIVersion, wa.PhoneNumberID, wa.AccessToken, log)
	} else {
		log.Warn("whatsapp_disabled", nil, map[string]any{"reason": "missing access_token or phone_number_id"})
		s.Notifier = service.NewLogNotifier(log)
	}

	if mq == nil {
		s.Broadcaster = service.NewLogBroadcaster(log)
		return s, nil
	}
	if err := mq.DeclareFanout(exchange); err != nil {
		return nil, fmt.Errorf("declare %s: %w", exchange, err)
	}
	s.Broadcaster = service.NewRabbitBroadcaster(mq, exchange, log)
	return s, nil
}

// Start consumes the order broadcast until ctx is cancelled.
func Start(ctx context.Context, mq *rabbitmq.Client, cfg config.MQ, log *logger.Logger) error {
	deliveries, err := mq.Subscribe(cfg.Exchange, cfg.Queue, "order-feed", 10)
	if err != nil {
		return err
	}
	log.Info("feed_started", map[string]any{"exchange": cfg.Exchange, "queue": cfg.Queue})
	service.NewFeedService(log).Consume(ctx, deliveries)
	return nil
}
