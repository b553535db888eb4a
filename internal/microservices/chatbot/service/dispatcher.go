package service

import (
	"context"
	"sync"
	"time"

	"restaurant-chatbot/internal/common/logger"
)

type Turner interface {
	Handle(ctx context.Context, phone, text string) []string
}

type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// turnTimeout bounds one turn, store and gateway calls included.
const turnTimeout = 30 * time.Second

type job struct {
	ctx  context.Context
	text string
}

// Dispatcher runs turns for one phone strictly in arrival order, one at a
// time, while different phones proceed in parallel. A phone's goroutine
// exits as soon as its queue drains.
type Dispatcher struct {
	engine   Turner
	notifier Notifier
	log      *logger.Logger

	turnTimeout time.Duration

	mu    sync.Mutex
	lanes map[string][]job
	wg    sync.WaitGroup
}

func NewDispatcher(engine Turner, n Notifier, log *logger.Logger) *Dispatcher {
	return &Dispatcher{engine: engine, notifier: n, log: log, turnTimeout: turnTimeout, lanes: make(map[string][]job)}
}

// Submit queues text for phone and returns immediately.
func (d *Dispatcher) Submit(ctx context.Context, phone, text string) {
	d.mu.Lock()
	queue, running := d.lanes[phone]
	d.lanes[phone] = append(queue, job{ctx: ctx, text: text})
	if !running {
		d.wg.Add(1)
		go d.drain(phone)
	}
	d.mu.Unlock()
}

func (d *Dispatcher) drain(phone string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.lanes[phone]
		if len(queue) == 0 {
			delete(d.lanes, phone)
			d.mu.Unlock()
			return
		}
		next := queue[0]
		d.lanes[phone] = queue[1:]
		d.mu.Unlock()

		d.run(phone, next)
	}
}

func (d *Dispatcher) run(phone string, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("turn_panicked", nil, map[string]any{"phone": phone, "panic": r})
		}
	}()
	ctx, cancel := context.WithTimeout(j.ctx, d.turnTimeout)
	defer cancel()

	for _, reply := range d.engine.Handle(ctx, phone, j.text) {
		sendCtx, sendCancel := context.WithTimeout(context.WithoutCancel(j.ctx), 10*time.Second)
		if err := d.notifier.Send(sendCtx, phone, reply); err != nil {
			d.log.Warn("reply_failed", err, map[string]any{"phone": phone})
		}
		sendCancel()
	}
}

// Wait blocks until every queued turn has been handled.
func (d *Dispatcher) Wait() { d.wg.Wait() }
