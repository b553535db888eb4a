package rabbitmq

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-chatbot/internal/common/config"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	acks <-chan amqp.Confirmation // publisher confirms
	mu   sync.Mutex               // one in-flight publish while waiting for its confirm
}

func (c *Client) Channel() *amqp.Channel { return c.ch }

func (c *Client) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func Dial(cfg config.MQ, useTLS bool) (*Client, error) {
	vhost := cfg.VHost
	if vhost == "" || vhost == "/" {
		vhost = ""
	}
	scheme := "amqp"
	if useTLS {
		scheme = "amqps"
	}
	url := fmt.Sprintf("%s://%s:%s@%s:%d/%s", scheme, cfg.User, cfg.Password, cfg.Host, cfg.Port, vhost)

	var (
		conn *amqp.Connection
		err  error
	)
	if useTLS {
		conn, err = amqp.DialTLS(url, &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		conn, err = amqp.Dial(url)
	}
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	return &Client{conn: conn, ch: ch, acks: acks}, nil
}

func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// DeclareFanout declares a durable fanout exchange; safe to call repeatedly.
func (c *Client) DeclareFanout(exchange string) error {
	return c.ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil)
}

// Message is everything Publish needs besides the destination.
type Message struct {
	ID            string
	CorrelationID string
	ContentType   string
	Headers       amqp.Table
	Body          []byte
	Persistent    bool
}

// Publish sends one message and waits for the broker ack or ctx.
func (c *Client) Publish(ctx context.Context, exchange, key string, m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	mode := amqp.Transient
	if m.Persistent {
		mode = amqp.Persistent
	}

	if err := c.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		DeliveryMode:  mode,
		ContentType:   m.ContentType,
		MessageId:     m.ID,
		CorrelationId: m.CorrelationID,
		Timestamp:     time.Now().UTC(),
		Headers:       m.Headers,
		Body:          m.Body,
	}); err != nil {
		return err
	}

	select {
	case conf := <-c.acks:
		if conf.Ack {
			return nil
		}
		return errors.New("publish NACK from broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe binds a durable queue to exchange and starts consuming it.
func (c *Client) Subscribe(exchange, queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consume channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, "", exchange, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind %s: %w", queue, err)
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return ch.Consume(queue, consumer, false, false, false, false, nil)
}
