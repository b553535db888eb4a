package service

import (
	"context"
	"fmt"
	"time"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
)

type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeFailed    Outcome = "failed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// Orders is the slice of the order lifecycle reconciliation needs.
type Orders interface {
	FindByID(ctx context.Context, id int64) (domain.Order, error)
	RecordPayment(ctx context.Context, id int64, status domain.PaymentStatus, ref string) (domain.Order, bool, error)
}

type Reconciler struct {
	orders   Orders
	notifier Notifier
	guard    ReplayGuard // optional
	contact  string
	log      *logger.Logger
}

func NewReconciler(orders Orders, n Notifier, guard ReplayGuard, contact string, log *logger.Logger) *Reconciler {
	return &Reconciler{orders: orders, notifier: n, guard: guard, contact: contact, log: log}
}

// Reconcile applies one parsed webhook. Only paymentStatus and the payment
// reference are ever written; a missing order is reported, never waited for.
func (r *Reconciler) Reconcile(ctx context.Context, ev Event) (Outcome, error) {
	key := replayKey(ev)
	if r.guard != nil {
		seen, err := r.guard.Seen(ctx, key)
		if err != nil {
			r.log.Warn("replay_guard_unavailable", err, map[string]any{"key": key})
		} else if seen {
			r.log.Info("webhook_duplicate", map[string]any{"order_id": ev.OrderID, "payment_id": ev.PaymentID, "source": "cache"})
			return OutcomeDuplicate, nil
		}
	}

	if _, err := r.orders.FindByID(ctx, ev.OrderID); err != nil {
		return "", err
	}

	var target domain.PaymentStatus
	switch ev.Status {
	case "paid", "captured":
		target = domain.PaymentConfirmed
	case "failed":
		target = domain.PaymentFailed
	default:
		r.log.Info("webhook_ignored", map[string]any{"order_id": ev.OrderID, "status": ev.Status})
		return OutcomeIgnored, nil
	}

	o, applied, err := r.orders.RecordPayment(ctx, ev.OrderID, target, ev.PaymentID)
	if errs.IsDuplicate(err) {
		r.log.Info("webhook_duplicate", map[string]any{"order_id": ev.OrderID, "payment_id": ev.PaymentID, "source": "store"})
		r.mark(ctx, key)
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return "", err
	}
	if !applied {
		r.log.Info("webhook_ignored", map[string]any{"order_id": ev.OrderID, "status": ev.Status, "reason": "payment already confirmed"})
		return OutcomeIgnored, nil
	}
	r.mark(ctx, key)

	if target == domain.PaymentFailed {
		r.notify(ctx, o.Phone, failureNotice(o, ev.PaymentID))
		return OutcomeFailed, nil
	}
	if o.OrderStatus == domain.StatusCancelled {
		r.notify(ctx, o.Phone, refundNotice(o, ev.PaymentID, r.contact))
	} else {
		r.notify(ctx, o.Phone, confirmationNotice(o, ev.PaymentID))
	}
	return OutcomeConfirmed, nil
}

func (r *Reconciler) mark(ctx context.Context, key string) {
	if r.guard == nil {
		return
	}
	if err := r.guard.Mark(ctx, key); err != nil {
		r.log.Warn("replay_guard_mark_failed", err, map[string]any{"key": key})
	}
}

func (r *Reconciler) notify(ctx context.Context, phone, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.notifier.Send(ctx, phone, text); err != nil {
		r.log.Warn("notification_failed", err, map[string]any{"phone": phone})
	}
}

func confirmationNotice(o domain.Order, paymentID string) string {
	return fmt.Sprintf("✅ Payment received successfully!\nPayment ID: %s\nPayment Mode: %s\nThank you *%s* 😄\nYour order (ID: %d) has been confirmed.\n\nYour order will be ready soon! 🍽️",
		paymentID, o.PaymentMode, o.CustomerName, o.ID)
}

func failureNotice(o domain.Order, paymentID string) string {
	return fmt.Sprintf("❌ Payment failed for your order (ID: %d).\nPayment ID: %s\nPlease try the payment again with the same link, or start a new order by typing *order* and choose *Cash on Delivery*.",
		o.ID, paymentID)
}

func refundNotice(o domain.Order, paymentID, contact string) string {
	return fmt.Sprintf("ℹ️ We received payment %s for order #%d, but that order was already cancelled.\nPlease contact the restaurant for a refund.\n📞 Contact no.: %s",
		paymentID, o.ID, contact)
}
