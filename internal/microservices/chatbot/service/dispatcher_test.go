package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"restaurant-chatbot/internal/common/logger"
)

type echoTurner struct {
	mu      sync.Mutex
	active  map[string]int
	overlap bool
	delay   time.Duration
}

func (e *echoTurner) Handle(_ context.Context, phone, text string) []string {
	e.mu.Lock()
	if e.active == nil {
		e.active = make(map[string]int)
	}
	e.active[phone]++
	if e.active[phone] > 1 {
		e.overlap = true
	}
	e.mu.Unlock()

	time.Sleep(e.delay)

	e.mu.Lock()
	e.active[phone]--
	e.mu.Unlock()
	if text == "panic" {
		panic("boom")
	}
	return []string{"re:" + text}
}

func TestDispatcherKeepsPerPhoneOrder(t *testing.T) {
	turner := &echoTurner{delay: time.Millisecond}
	out := &outbox{}
	d := NewDispatcher(turner, out, logger.Nop())

	for i := 0; i < 20; i++ {
		d.Submit(context.Background(), "911", fmt.Sprint(i))
		d.Submit(context.Background(), "922", fmt.Sprint(i))
	}
	d.Wait()

	if turner.overlap {
		t.Error("two turns for the same phone ran concurrently")
	}
	for _, phone := range []string{"911", "922"} {
		got := out.to(phone)
		if len(got) != 20 {
			t.Fatalf("%s got %d replies, want 20", phone, len(got))
		}
		for i, r := range got {
			if want := fmt.Sprintf("re:%d", i); r != want {
				t.Fatalf("%s reply %d = %q, want %q", phone, i, r, want)
			}
		}
	}
}

func TestDispatcherRunsPhonesInParallel(t *testing.T) {
	turner := &echoTurner{delay: 50 * time.Millisecond}
	d := NewDispatcher(turner, &outbox{}, logger.Nop())

	start := time.Now()
	for i := 0; i < 10; i++ {
		d.Submit(context.Background(), fmt.Sprintf("9%02d", i), "hi")
	}
	d.Wait()
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("10 phones took %v, turns look serialized", elapsed)
	}
}

func TestDispatcherSurvivesPanickingTurn(t *testing.T) {
	out := &outbox{}
	d := NewDispatcher(&echoTurner{}, out, logger.Nop())

	d.Submit(context.Background(), "911", "panic")
	d.Submit(context.Background(), "911", "after")
	d.Wait()

	if got := out.to("911"); len(got) != 1 || got[0] != "re:after" {
		t.Errorf("replies = %q", got)
	}
}

type blockingTurner struct{}

func (blockingTurner) Handle(ctx context.Context, _, _ string) []string {
	if _, ok := ctx.Deadline(); !ok {
		return []string{"no deadline"}
	}
	<-ctx.Done()
	return []string{ctx.Err().Error()}
}

func TestDispatcherBoundsEachTurn(t *testing.T) {
	out := &outbox{}
	d := NewDispatcher(blockingTurner{}, out, logger.Nop())
	d.turnTimeout = 20 * time.Millisecond

	d.Submit(context.WithoutCancel(context.Background()), "911", "order")
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("turn was not cut off")
	}
	if got := out.to("911"); len(got) != 1 || got[0] != context.DeadlineExceeded.Error() {
		t.Errorf("replies = %q", got)
	}
}
