package session

import (
	"context"
	"sync"
	"time"

	"restaurant-chatbot/internal/common/logger"
)

const TimeoutNotice = "⌛ Your session has expired due to inactivity. Type *Order* to start again."

type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// Sweeper evicts idle sessions on a fixed interval and tells each evicted
// phone once.
type Sweeper struct {
	store    *Store
	notifier Notifier
	ttl      time.Duration
	every    time.Duration
	log      *logger.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewSweeper(store *Store, n Notifier, ttl, every time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{store: store, notifier: n, ttl: ttl, every: every, log: log}
}

// SweepOnce evicts, then notifies with the store lock already released.
func (s *Sweeper) SweepOnce(ctx context.Context) []string {
	evicted := s.store.Sweep(s.store.Now(), s.ttl)
	for _, phone := range evicted {
		nctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := s.notifier.Send(nctx, phone, TimeoutNotice); err != nil {
			s.log.Warn("timeout_notice_failed", err, map[string]any{"phone": phone})
		}
		cancel()
	}
	if len(evicted) > 0 {
		s.log.Info("sessions_expired", map[string]any{"count": len(evicted)})
	}
	return evicted
}

func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		t := time.NewTicker(s.every)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-t.C:
				s.SweepOnce(ctx)
			}
		}
	}(s.stop, s.done)
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
