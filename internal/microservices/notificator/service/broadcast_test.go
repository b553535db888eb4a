package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/connections/rabbitmq"
	"restaurant-chatbot/internal/domain"
)

type published struct {
	exchange, key string
	msg           rabbitmq.Message
}

type fakePublisher struct {
	got []published
	err error
}

func (f *fakePublisher) Publish(_ context.Context, exchange, key string, m rabbitmq.Message) error {
	f.got = append(f.got, published{exchange, key, m})
	return f.err
}

func TestRabbitBroadcasterPublishesSnapshot(t *testing.T) {
	pub := &fakePublisher{}
	b := NewRabbitBroadcaster(pub, "orders_broadcast", logger.Nop())
	snap := domain.OrderSnapshot{ID: 7, CustomerName: "Asha", OrderStatus: domain.StatusAccepted, TotalPrice: "250.00"}

	if err := b.Publish(context.Background(), domain.TopicOrders, snap); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(pub.got) != 1 {
		t.Fatalf("published %d messages", len(pub.got))
	}
	p := pub.got[0]
	if p.exchange != "orders_broadcast" || p.key != domain.TopicOrders {
		t.Errorf("destination = %s/%s", p.exchange, p.key)
	}
	if _, err := uuid.Parse(p.msg.ID); err != nil {
		t.Errorf("message id %q is not a uuid", p.msg.ID)
	}
	if !p.msg.Persistent || p.msg.ContentType != "application/json" {
		t.Errorf("message = %+v", p.msg)
	}
	var got domain.OrderSnapshot
	if err := json.Unmarshal(p.msg.Body, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != 7 || got.OrderStatus != domain.StatusAccepted || got.TotalPrice != "250.00" {
		t.Errorf("body = %+v", got)
	}
}

func TestRabbitBroadcasterReturnsPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nack")}
	b := NewRabbitBroadcaster(pub, "orders_broadcast", logger.Nop())
	if err := b.Publish(context.Background(), domain.TopicOrders, domain.OrderSnapshot{ID: 1}); err == nil {
		t.Error("expected the broker error")
	}
}
