package service

import (
	"context"

	"restaurant-chatbot/internal/domain"
)

// Notifier delivers a text to a customer. Implementations are best effort.
type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// Broadcaster fans an order snapshot out to dashboards.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, snap domain.OrderSnapshot) error
}
