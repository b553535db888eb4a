package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
	"restaurant-chatbot/internal/microservices/chatbot/session"
	"restaurant-chatbot/internal/microservices/payment/gateway"
)

type Orders interface {
	CreateOrder(ctx context.Context, name, phone string, mode domain.PaymentMode, cart domain.Cart) (domain.Order, error)
	Transition(ctx context.Context, id int64, target string) (domain.Order, error)
	AttachPaymentLink(ctx context.Context, id int64, linkID string) (domain.Order, error)
	FindByID(ctx context.Context, id int64) (domain.Order, error)
	LatestByPhone(ctx context.Context, phone string) (domain.Order, bool, error)
	ReleaseFailed(ctx context.Context, id int64) (domain.Order, bool, error)
}

type PaymentGateway interface {
	CreateLink(ctx context.Context, req gateway.LinkRequest) (gateway.Link, error)
	CancelLink(ctx context.Context, linkID string) error
}

type Menu interface {
	ListAvailable(ctx context.Context) ([]domain.MenuItem, error)
	FindByName(ctx context.Context, name string) (domain.MenuItem, bool, error)
}

type Restaurant interface {
	IsOpen(ctx context.Context) (bool, error)
}

// Responder answers free text outside an ordering session. It never fails;
// implementations fall back to a canned reply.
type Responder interface {
	Generate(ctx context.Context, question string, menu []domain.MenuItem) string
}

type Config struct {
	RestaurantName string
	Contact        string
}

// Engine runs one dialog turn at a time. It is safe for concurrent use across
// phones; turns for the same phone must be serialized by the caller
// (see Dispatcher).
type Engine struct {
	sessions   *session.Store
	orders     Orders
	payments   PaymentGateway
	menu       Menu
	restaurant Restaurant
	ai         Responder
	cfg        Config
	log        *logger.Logger
}

func NewEngine(sessions *session.Store, orders Orders, payments PaymentGateway, menu Menu, restaurant Restaurant, ai Responder, cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		sessions:   sessions,
		orders:     orders,
		payments:   payments,
		menu:       menu,
		restaurant: restaurant,
		ai:         ai,
		cfg:        cfg,
		log:        log,
	}
}

// Handle processes one inbound text and returns the replies in send order.
func (e *Engine) Handle(ctx context.Context, phone, text string) []string {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	if isStatusCommand(lower) {
		e.sessions.Touch(phone)
		return e.status(ctx, phone, text)
	}
	if lower == "cancel" {
		return e.cancel(ctx, phone)
	}

	sess, ok := e.sessions.Get(phone)
	if !ok {
		return e.initial(ctx, phone, lower, text)
	}
	if !e.isOpen(ctx) {
		e.sessions.Remove(phone)
		return []string{msgClosed}
	}

	switch st := sess.State.(type) {
	case session.AskName:
		return e.askName(ctx, phone, text)
	case session.TakeOrder:
		return e.takeOrder(ctx, phone, st, text, lower)
	case session.AskPayment:
		return e.askPayment(ctx, phone, st, lower)
	case session.AskEmail:
		return e.askEmail(ctx, phone, st, text, lower)
	}
	// unreachable while State stays sealed
	e.sessions.Remove(phone)
	return []string{msgSystemError}
}

func (e *Engine) isOpen(ctx context.Context) bool {
	open, err := e.restaurant.IsOpen(ctx)
	if err != nil {
		e.log.Warn("restaurant_status_unavailable", err, nil)
		return true
	}
	return open
}

func (e *Engine) initial(ctx context.Context, phone, lower, text string) []string {
	if lower != "order" {
		menu, err := e.menu.ListAvailable(ctx)
		if err != nil {
			e.log.Warn("menu_unavailable", err, nil)
		}
		return []string{e.ai.Generate(ctx, text, menu)}
	}
	if !e.isOpen(ctx) {
		return []string{msgClosed}
	}

	var replies []string
	if notice, ok := e.releaseFailed(ctx, phone); ok {
		replies = append(replies, notice)
	}
	e.sessions.GetOrCreate(phone)
	e.log.Info("session_started", map[string]any{"phone": phone})
	return append(replies, greeting(e.cfg.RestaurantName))
}

// releaseFailed clears the way for a new order when the previous online
// payment failed: the old link is revoked and the order cancelled quietly.
func (e *Engine) releaseFailed(ctx context.Context, phone string) (string, bool) {
	last, ok, err := e.orders.LatestByPhone(ctx, phone)
	if err != nil {
		e.log.Warn("latest_order_lookup_failed", err, map[string]any{"phone": phone})
		return "", false
	}
	if !ok || last.PaymentStatus != domain.PaymentFailed || last.OrderStatus.Terminal() {
		return "", false
	}
	if last.PaymentMode.Online() {
		if err := e.payments.CancelLink(ctx, last.ExternalPaymentRef); err != nil {
			e.log.Warn("payment_link_revoke_failed", err, map[string]any{"order_id": last.ID})
		}
	}
	if _, released, err := e.orders.ReleaseFailed(ctx, last.ID); err != nil || !released {
		if err != nil {
			e.log.Warn("failed_order_release_failed", err, map[string]any{"order_id": last.ID})
		}
		return "", false
	}
	return restartNotice(last.ID), true
}

func (e *Engine) askName(ctx context.Context, phone, name string) []string {
	if name == "" {
		e.sessions.Touch(phone)
		return []string{msgAskName}
	}
	items, err := e.menu.ListAvailable(ctx)
	if err != nil {
		e.log.Error("menu_unavailable", err, nil)
		e.sessions.Touch(phone)
		return []string{msgSystemError}
	}
	if len(items) == 0 {
		e.sessions.Remove(phone)
		return []string{msgEmptyMenu}
	}
	e.sessions.Save(phone, session.TakeOrder{Customer: name, Cart: domain.Cart{}})
	return []string{menuText(name, items)}
}

func (e *Engine) takeOrder(ctx context.Context, phone string, st session.TakeOrder, text, lower string) []string {
	if isDone(lower) {
		return e.checkout(ctx, phone, st)
	}

	qty, name, ok := parseCartLine(text)
	if !ok {
		e.sessions.Touch(phone)
		return []string{msgBadQuantity}
	}
	it, found, err := e.menu.FindByName(ctx, name)
	if err != nil {
		e.log.Error("menu_lookup_failed", err, map[string]any{"item": name})
		e.sessions.Touch(phone)
		return []string{msgSystemError}
	}
	if !found || !it.Available {
		e.sessions.Touch(phone)
		return []string{notOnMenu(name)}
	}

	if st.Cart[it.Name]+qty > domain.MaxQuantity {
		e.sessions.Touch(phone)
		return []string{msgBadQuantity}
	}
	st.Cart[it.Name] += qty
	e.sessions.Save(phone, st)
	return []string{itemAdded(it, qty)}
}

// checkout prices the cart from the current menu. Lines that disappeared from
// the menu since they were added are dropped and reported.
func (e *Engine) checkout(ctx context.Context, phone string, st session.TakeOrder) []string {
	if len(st.Cart) == 0 {
		e.sessions.Touch(phone)
		return []string{msgEmptyCart}
	}

	var lines []domain.OrderItem
	var dropped []string
	total := decimal.Zero
	for _, name := range st.Cart.Names() {
		it, found, err := e.menu.FindByName(ctx, name)
		if err != nil {
			e.log.Error("menu_lookup_failed", err, map[string]any{"item": name})
			e.sessions.Touch(phone)
			return []string{msgSystemError}
		}
		if !found || !it.Available {
			dropped = append(dropped, name)
			delete(st.Cart, name)
			continue
		}
		line := domain.OrderItem{Name: it.Name, Price: it.Price, Quantity: st.Cart[name]}
		lines = append(lines, line)
		total = total.Add(line.LineTotal())
	}

	var replies []string
	if len(dropped) > 0 {
		replies = append(replies, droppedItems(dropped))
	}
	if len(lines) == 0 {
		e.sessions.Save(phone, st)
		return append(replies, msgEmptyCart)
	}
	e.sessions.Save(phone, session.AskPayment{Customer: st.Customer, Cart: st.Cart, Total: total})
	return append(replies, orderSummary(lines, total))
}

func (e *Engine) askPayment(ctx context.Context, phone string, st session.AskPayment, lower string) []string {
	mode, ok := domain.ParsePaymentMode(lower)
	if !ok {
		e.sessions.Touch(phone)
		return []string{msgBadPayment}
	}
	if mode.Online() {
		e.sessions.Save(phone, session.AskEmail{Customer: st.Customer, Cart: st.Cart, Total: st.Total, Method: mode})
		return []string{msgAskEmail}
	}

	o, err := e.orders.CreateOrder(ctx, st.Customer, phone, mode, st.Cart)
	if err != nil {
		e.log.Error("order_create_failed", err, map[string]any{"phone": phone})
		e.sessions.Touch(phone)
		return []string{msgOrderFailed}
	}
	e.sessions.Remove(phone)
	return []string{cashConfirmation(o)}
}

func (e *Engine) askEmail(ctx context.Context, phone string, st session.AskEmail, text, lower string) []string {
	// the session ends here whatever happens next
	e.sessions.Remove(phone)

	email := text
	if lower == "skip" {
		email = ""
	}

	o, err := e.orders.CreateOrder(ctx, st.Customer, phone, st.Method, st.Cart)
	if err != nil {
		e.log.Error("order_create_failed", err, map[string]any{"phone": phone})
		return []string{msgSystemError}
	}

	link, err := e.payments.CreateLink(ctx, gateway.LinkRequest{
		OrderID: o.ID,
		Name:    o.CustomerName,
		Email:   email,
		Phone:   phone,
		Amount:  o.TotalPrice,
	})
	if err != nil {
		e.log.Error("payment_link_failed", err, map[string]any{"order_id": o.ID})
		return []string{msgLinkFailed}
	}
	if _, err := e.orders.AttachPaymentLink(ctx, o.ID, link.ID); err != nil {
		e.log.Error("payment_link_attach_failed", err, map[string]any{"order_id": o.ID, "link_id": link.ID})
	}
	return []string{paymentLinkMessage(o, link.URL)}
}

func (e *Engine) status(ctx context.Context, phone, text string) []string {
	raw := digitRun.FindString(text)
	if raw == "" {
		return []string{msgTrackPrompt}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return []string{orderNotFound(raw)}
	}
	o, err := e.orders.FindByID(ctx, id)
	if errs.IsNotFound(err) || (err == nil && o.Phone != phone) {
		return []string{orderNotFound(raw)}
	}
	if err != nil {
		e.log.Error("order_lookup_failed", err, map[string]any{"order_id": id})
		return []string{msgSystemError}
	}
	return []string{orderStatus(o)}
}

func (e *Engine) cancel(ctx context.Context, phone string) []string {
	if _, ok := e.sessions.Get(phone); ok {
		e.sessions.Remove(phone)
		return []string{msgSessionCancel}
	}

	o, ok, err := e.orders.LatestByPhone(ctx, phone)
	if err != nil {
		e.log.Error("latest_order_lookup_failed", err, map[string]any{"phone": phone})
		return []string{msgSystemError}
	}
	if !ok {
		return []string{msgNothingCancel}
	}

	switch o.OrderStatus {
	case domain.StatusCancelled:
		return []string{alreadyCancelled(o)}
	case domain.StatusPending:
	default:
		return []string{cancelRefused(o, e.cfg.Contact)}
	}

	if o.PaymentMode.Online() && o.PaymentStatus == domain.PaymentPending {
		if err := e.payments.CancelLink(ctx, o.ExternalPaymentRef); err != nil {
			e.log.Warn("payment_link_revoke_failed", err, map[string]any{"order_id": o.ID})
		}
	}
	// Transition sends the cancellation notice itself.
	if _, err := e.orders.Transition(ctx, o.ID, string(domain.StatusCancelled)); err != nil {
		e.log.Error("order_cancel_failed", err, map[string]any{"order_id": o.ID})
		return []string{cancelFailed(e.cfg.Contact)}
	}
	return []string{msgCancelAck}
}
