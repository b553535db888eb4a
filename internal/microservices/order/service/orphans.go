package service

import (
	"context"
	"sync"
	"time"

	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
	"restaurant-chatbot/internal/microservices/order/repository"
)

// OrphanSweeper cancels online orders that never got a payment link, which
// happens when link creation fails after the order was saved.
type OrphanSweeper struct {
	orders    repository.OrderStore
	lifecycle *LifecycleService
	grace     time.Duration
	every     time.Duration
	log       *logger.Logger
	now       func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewOrphanSweeper(orders repository.OrderStore, lifecycle *LifecycleService, grace, every time.Duration, log *logger.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		orders:    orders,
		lifecycle: lifecycle,
		grace:     grace,
		every:     every,
		log:       log,
		now:       time.Now,
	}
}

// SweepOnce cancels every unlinked order older than the grace period and
// returns the ids it cancelled.
func (s *OrphanSweeper) SweepOnce(ctx context.Context) ([]int64, error) {
	candidates, err := s.orders.FindUnlinked(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-s.grace)
	var cancelled []int64
	for _, o := range candidates {
		if !o.OrderTime.Before(cutoff) {
			continue
		}
		got, err := s.lifecycle.Transition(ctx, o.ID, string(domain.StatusCancelled))
		if err != nil {
			s.log.Warn("orphan_cancel_failed", err, map[string]any{"order_id": o.ID})
			continue
		}
		if got.OrderStatus == domain.StatusCancelled {
			cancelled = append(cancelled, o.ID)
		}
	}
	if len(cancelled) > 0 {
		s.log.Info("orphans_cancelled", map[string]any{"count": len(cancelled), "order_ids": cancelled})
	}
	return cancelled, nil
}

// Start runs SweepOnce on every tick until Stop or ctx is done.
func (s *OrphanSweeper) Start(ctx context.Context) {
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
				if _, err := s.SweepOnce(ctx); err != nil {
					s.log.Error("orphan_sweep_failed", err, nil)
				}
			}
		}
	}(s.stop, s.done)
}

func (s *OrphanSweeper) Stop() {
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
