package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
	"restaurant-chatbot/internal/microservices/order/repository"
)

// sideEffectTimeout bounds every notification and broadcast.
const sideEffectTimeout = 10 * time.Second

type LifecycleService struct {
	orders      repository.OrderStore
	menu        repository.MenuCatalog
	notifier    Notifier
	broadcaster Broadcaster
	log         *logger.Logger
	now         func() time.Time
}

func NewLifecycleService(orders repository.OrderStore, menu repository.MenuCatalog, n Notifier, b Broadcaster, log *logger.Logger) *LifecycleService {
	return &LifecycleService{
		orders:      orders,
		menu:        menu,
		notifier:    n,
		broadcaster: b,
		log:         log,
		now:         time.Now,
	}
}

// CreateOrder prices every cart line from the catalog at this moment and
// persists a Pending/Pending order. Nothing is written if any line fails to
// resolve.
func (s *LifecycleService) CreateOrder(ctx context.Context, name, phone string, mode domain.PaymentMode, cart domain.Cart) (domain.Order, error) {
	if len(cart) == 0 {
		return domain.Order{}, errs.NewValidationError("cart", "at least one item is required")
	}
	if _, ok := domain.ParsePaymentMode(string(mode)); !ok {
		return domain.Order{}, errs.NewValidationError("payment_mode", fmt.Sprintf("unsupported mode %q", mode))
	}

	items := make([]domain.OrderItem, 0, len(cart))
	total := decimal.Zero
	for _, itemName := range cart.Names() {
		qty := cart[itemName]
		if qty <= 0 || qty > domain.MaxQuantity {
			return domain.Order{}, errs.NewValidationError("quantity", fmt.Sprintf("invalid quantity %d for item %s", qty, itemName))
		}
		mi, ok, err := s.menu.FindByName(ctx, itemName)
		if err != nil {
			return domain.Order{}, errs.NewTransientError("menu", err)
		}
		if !ok {
			return domain.Order{}, errs.NewNotFoundError("menu item", itemName)
		}
		line := domain.OrderItem{Name: mi.Name, Price: mi.Price, Quantity: qty}
		items = append(items, line)
		total = total.Add(line.LineTotal())
	}

	o, err := s.orders.Create(ctx, domain.Order{
		CustomerName:  name,
		Phone:         phone,
		PaymentStatus: domain.PaymentPending,
		OrderStatus:   domain.StatusPending,
		PaymentMode:   mode,
		TotalPrice:    total,
		OrderTime:     s.now().UTC(),
		Items:         items,
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to save order: %w", err)
	}

	s.log.Info("order_created", map[string]any{"order_id": o.ID, "mode": string(mode), "total": total.StringFixed(2)})
	s.broadcast(ctx, o)
	return o, nil
}

// Transition moves the fulfillment status. The order is re-read under the
// store lock on every call.
func (s *LifecycleService) Transition(ctx context.Context, id int64, target string) (domain.Order, error) {
	to, ok := domain.ParseOrderStatus(target)
	if !ok {
		return domain.Order{}, errs.NewValidationError("status", fmt.Sprintf("unknown order status %q", target))
	}
	if to == domain.StatusPending {
		return domain.Order{}, errs.NewBusinessRuleError("pending_is_initial", "an order cannot be moved back to Pending")
	}

	o, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		if o.OrderStatus == to {
			return repository.ErrUnchanged
		}
		switch o.OrderStatus {
		case domain.StatusDelivered:
			return errs.NewBusinessRuleError("delivered_is_final", fmt.Sprintf("order %d was delivered and cannot become %s", o.ID, to))
		case domain.StatusCancelled:
			return errs.NewBusinessRuleError("cancelled_is_final", fmt.Sprintf("order %d was cancelled and cannot become %s", o.ID, to))
		}
		if to == domain.StatusDelivered && o.PaymentStatus == domain.PaymentPending {
			// cash on delivery
			o.PaymentStatus = domain.PaymentConfirmed
		}
		o.OrderStatus = to
		return nil
	})
	if errors.Is(err, repository.ErrUnchanged) {
		return o, nil
	}
	if err != nil {
		return domain.Order{}, err
	}

	s.log.Info("order_status_changed", map[string]any{"order_id": o.ID, "status": string(o.OrderStatus)})
	if o.OrderStatus == domain.StatusCancelled {
		s.notify(ctx, o.Phone, cancellationNotice(o))
	}
	s.broadcast(ctx, o)
	return o, nil
}

// AttachPaymentLink stores the gateway link id while the order still waits
// for payment. A webhook that got there first wins.
func (s *LifecycleService) AttachPaymentLink(ctx context.Context, id int64, linkID string) (domain.Order, error) {
	if linkID == "" {
		return domain.Order{}, errs.NewValidationError("link_id", "empty payment link id")
	}
	o, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		if o.PaymentStatus != domain.PaymentPending || o.ExternalPaymentRef != "" {
			return repository.ErrUnchanged
		}
		o.ExternalPaymentRef = linkID
		return nil
	})
	if errors.Is(err, repository.ErrUnchanged) {
		return o, nil
	}
	if err != nil {
		return domain.Order{}, err
	}
	s.broadcast(ctx, o)
	return o, nil
}

// ReleaseFailed cancels an order whose online payment failed so the customer
// can start over. Payment status stays Failed. No cancellation notice is sent;
// the caller tells the customer why a new order is starting.
func (s *LifecycleService) ReleaseFailed(ctx context.Context, id int64) (domain.Order, bool, error) {
	o, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		if o.PaymentStatus != domain.PaymentFailed || o.OrderStatus.Terminal() {
			return repository.ErrUnchanged
		}
		o.OrderStatus = domain.StatusCancelled
		return nil
	})
	if errors.Is(err, repository.ErrUnchanged) {
		return o, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	s.log.Info("failed_order_released", map[string]any{"order_id": o.ID})
	s.broadcast(ctx, o)
	return o, true, nil
}

// RecordPayment applies a gateway verdict to the payment axis only. A replay
// of an already applied verdict returns a DuplicateEventError. A failure never
// overrides a confirmed payment.
func (s *LifecycleService) RecordPayment(ctx context.Context, id int64, status domain.PaymentStatus, ref string) (domain.Order, bool, error) {
	if status != domain.PaymentConfirmed && status != domain.PaymentFailed {
		return domain.Order{}, false, errs.NewValidationError("payment_status", fmt.Sprintf("cannot record %q", status))
	}
	o, err := s.orders.Mutate(ctx, id, func(o *domain.Order) error {
		if o.PaymentStatus == status && o.ExternalPaymentRef == ref {
			return errs.NewDuplicateEventError(ref)
		}
		if status == domain.PaymentFailed && o.PaymentStatus == domain.PaymentConfirmed {
			return repository.ErrUnchanged
		}
		o.PaymentStatus = status
		o.ExternalPaymentRef = ref
		return nil
	})
	if errors.Is(err, repository.ErrUnchanged) {
		return o, false, nil
	}
	if err != nil {
		return domain.Order{}, false, err
	}
	s.log.Info("payment_recorded", map[string]any{"order_id": o.ID, "payment_status": string(status), "ref": ref})
	s.broadcast(ctx, o)
	return o, true, nil
}

func (s *LifecycleService) FindByID(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.FindByID(ctx, id)
}

func (s *LifecycleService) LatestByPhone(ctx context.Context, phone string) (domain.Order, bool, error) {
	return s.orders.FindLatestByPhone(ctx, phone)
}

func (s *LifecycleService) notify(ctx context.Context, phone, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.notifier.Send(ctx, phone, text); err != nil {
		s.log.Warn("notification_failed", err, map[string]any{"phone": phone})
	}
}

func (s *LifecycleService) broadcast(ctx context.Context, o domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.broadcaster.Publish(ctx, domain.TopicOrders, o.Snapshot()); err != nil {
		s.log.Warn("broadcast_failed", err, map[string]any{"order_id": o.ID})
	}
}

func cancellationNotice(o domain.Order) string {
	return fmt.Sprintf("❌ Order #%d Cancelled ❌\n\nDear %s,\nYour order with ID #%d has been cancelled.\n\nWe hope to serve you again soon! 🙏",
		o.ID, o.CustomerName, o.ID)
}
