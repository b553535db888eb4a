package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReplayGuard remembers webhook deliveries that were already applied so a
// replay can be acknowledged without touching the database.
type ReplayGuard interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

func replayKey(ev Event) string {
	return fmt.Sprintf("payment:webhook:%s:%s", ev.PaymentID, ev.Status)
}

type RedisGuard struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *goredis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Seen(ctx context.Context, key string) (bool, error) {
	err := g.client.Get(ctx, key).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *RedisGuard) Mark(ctx context.Context, key string) error {
	return g.client.Set(ctx, key, "1", g.ttl).Err()
}
