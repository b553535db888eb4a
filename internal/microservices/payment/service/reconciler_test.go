package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
	"restaurant-chatbot/internal/microservices/order/repository"
	orderservice "restaurant-chatbot/internal/microservices/order/service"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (f *fakeNotifier) Send(_ context.Context, phone, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string][]string)
	}
	f.sent[phone] = append(f.sent[phone], text)
	return nil
}

func (f *fakeNotifier) to(phone string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[phone]...)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(context.Context, string, domain.OrderSnapshot) error { return nil }

type memGuard struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (g *memGuard) Seen(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.keys[key], g.err
}

func (g *memGuard) Mark(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = make(map[string]bool)
	}
	g.keys[key] = true
	return nil
}

type fixture struct {
	lifecycle *orderservice.LifecycleService
	notes     *fakeNotifier
}

func newFixture() *fixture {
	menu := repository.NewMemoryMenu(domain.MenuItem{Name: "Burger", Price: decimal.NewFromInt(100), Available: true})
	notes := &fakeNotifier{}
	return &fixture{
		lifecycle: orderservice.NewLifecycleService(repository.NewMemoryOrders(nil), menu, notes, nopBroadcaster{}, logger.Nop()),
		notes:     notes,
	}
}

func (f *fixture) onlineOrder(t *testing.T, phone string) domain.Order {
	t.Helper()
	o, err := f.lifecycle.CreateOrder(context.Background(), "Asha", phone, domain.PaymentUPI, domain.Cart{"Burger": 1})
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestReplayedPaidWebhookNotifiesOnce(t *testing.T) {
	for _, guard := range []ReplayGuard{nil, &memGuard{}} {
		f := newFixture()
		o := f.onlineOrder(t, "911")
		rec := NewReconciler(f.lifecycle, f.notes, guard, "+91-9999900000", logger.Nop())
		ev := Event{Status: "paid", PaymentID: "plink_1", OrderID: o.ID}

		first, err := rec.Reconcile(context.Background(), ev)
		if err != nil || first != OutcomeConfirmed {
			t.Fatalf("first = %s, %v", first, err)
		}
		second, err := rec.Reconcile(context.Background(), ev)
		if err != nil || second != OutcomeDuplicate {
			t.Fatalf("replay = %s, %v", second, err)
		}

		got, _ := f.lifecycle.FindByID(context.Background(), o.ID)
		if got.PaymentStatus != domain.PaymentConfirmed {
			t.Errorf("payment status = %s", got.PaymentStatus)
		}
		if n := len(f.notes.to("911")); n != 1 {
			t.Errorf("confirmation notices = %d, want 1", n)
		}
	}
}

func TestFailedWebhook(t *testing.T) {
	f := newFixture()
	// order ids are assigned sequentially, so create up to 41
	var o domain.Order
	for i := 0; i < 41; i++ {
		o = f.onlineOrder(t, "911")
	}
	if o.ID != 41 {
		t.Fatalf("setup produced order %d", o.ID)
	}

	ev, err := ParseWebhook([]byte(`{"payload":{"payment":{"entity":{"id":"pay_F41","status":"failed","notes":{"ResturantOrder_ID":"order_refid_41"}}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	rec := NewReconciler(f.lifecycle, f.notes, nil, "", logger.Nop())
	out, err := rec.Reconcile(context.Background(), ev)
	if err != nil || out != OutcomeFailed {
		t.Fatalf("Reconcile = %s, %v", out, err)
	}

	got, _ := f.lifecycle.FindByID(context.Background(), 41)
	if got.PaymentStatus != domain.PaymentFailed || got.ExternalPaymentRef != "pay_F41" {
		t.Errorf("order 41 = %s/%q", got.PaymentStatus, got.ExternalPaymentRef)
	}
	if got.OrderStatus != domain.StatusPending {
		t.Errorf("order status changed to %s", got.OrderStatus)
	}
	msgs := f.notes.to("911")
	if len(msgs) != 1 || !strings.Contains(msgs[0], "pay_F41") {
		t.Errorf("notices = %q", msgs)
	}
}

func TestReconcileUnknownOrder(t *testing.T) {
	f := newFixture()
	rec := NewReconciler(f.lifecycle, f.notes, nil, "", logger.Nop())
	_, err := rec.Reconcile(context.Background(), Event{Status: "paid", PaymentID: "pay_1", OrderID: 77})
	if !errs.IsNotFound(err) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
}

func TestReconcileIgnoresOtherStatuses(t *testing.T) {
	f := newFixture()
	o := f.onlineOrder(t, "911")
	rec := NewReconciler(f.lifecycle, f.notes, nil, "", logger.Nop())
	for _, status := range []string{"created", "pending", "expired"} {
		out, err := rec.Reconcile(context.Background(), Event{Status: status, PaymentID: "plink_1", OrderID: o.ID})
		if err != nil || out != OutcomeIgnored {
			t.Errorf("%s: %s, %v", status, out, err)
		}
	}
	got, _ := f.lifecycle.FindByID(context.Background(), o.ID)
	if got.PaymentStatus != domain.PaymentPending || len(f.notes.to("911")) != 0 {
		t.Errorf("ignored status mutated the order or notified: %+v", got)
	}
}

func TestFailureAfterConfirmIsIgnored(t *testing.T) {
	f := newFixture()
	o := f.onlineOrder(t, "911")
	rec := NewReconciler(f.lifecycle, f.notes, nil, "", logger.Nop())
	ctx := context.Background()

	_, _ = rec.Reconcile(ctx, Event{Status: "captured", PaymentID: "pay_ok", OrderID: o.ID})
	out, err := rec.Reconcile(ctx, Event{Status: "failed", PaymentID: "pay_bad", OrderID: o.ID})
	if err != nil || out != OutcomeIgnored {
		t.Fatalf("out = %s, %v", out, err)
	}
	got, _ := f.lifecycle.FindByID(ctx, o.ID)
	if got.PaymentStatus != domain.PaymentConfirmed || got.ExternalPaymentRef != "pay_ok" {
		t.Errorf("order = %s/%s", got.PaymentStatus, got.ExternalPaymentRef)
	}
}

func TestLatePaymentOnCancelledOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.onlineOrder(t, "911")
	if _, err := f.lifecycle.Transition(ctx, o.ID, "Cancelled"); err != nil {
		t.Fatal(err)
	}
	rec := NewReconciler(f.lifecycle, f.notes, nil, "+91-9999900000", logger.Nop())
	out, err := rec.Reconcile(ctx, Event{Status: "paid", PaymentID: "plink_1", OrderID: o.ID})
	if err != nil || out != OutcomeConfirmed {
		t.Fatalf("out = %s, %v", out, err)
	}
	got, _ := f.lifecycle.FindByID(ctx, o.ID)
	if got.OrderStatus != domain.StatusCancelled || got.PaymentStatus != domain.PaymentConfirmed {
		t.Errorf("order = %s/%s", got.OrderStatus, got.PaymentStatus)
	}
	msgs := f.notes.to("911")
	if len(msgs) != 2 || !strings.Contains(msgs[1], "refund") {
		t.Errorf("notices = %q, want cancellation then refund guidance", msgs)
	}
}

func TestGuardErrorFallsBackToStore(t *testing.T) {
	f := newFixture()
	o := f.onlineOrder(t, "911")
	guard := &memGuard{err: errors.New("redis down")}
	rec := NewReconciler(f.lifecycle, f.notes, guard, "", logger.Nop())
	ev := Event{Status: "paid", PaymentID: "plink_1", OrderID: o.ID}

	if out, _ := rec.Reconcile(context.Background(), ev); out != OutcomeConfirmed {
		t.Fatalf("first = %s", out)
	}
	if out, _ := rec.Reconcile(context.Background(), ev); out != OutcomeDuplicate {
		t.Fatalf("replay = %s", out)
	}
	if n := len(f.notes.to("911")); n != 1 {
		t.Errorf("notices = %d", n)
	}
}
