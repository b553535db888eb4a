package session

import (
	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/domain"
)

// State is one step of the ordering dialog. A phone without a session is in
// the initial state, so there is no variant for it.
type State interface {
	Name() string
	clone() State
}

type AskName struct{}

type TakeOrder struct {
	Customer string
	Cart     domain.Cart
}

type AskPayment struct {
	Customer string
	Cart     domain.Cart
	Total    decimal.Decimal
}

type AskEmail struct {
	Customer string
	Cart     domain.Cart
	Total    decimal.Decimal
	Method   domain.PaymentMode
}

func (AskName) Name() string    { return "ASK_NAME" }
func (TakeOrder) Name() string  { return "TAKE_ORDER" }
func (AskPayment) Name() string { return "ASK_PAYMENT" }
func (AskEmail) Name() string   { return "ASK_EMAIL" }

func (s AskName) clone() State { return s }

func (s TakeOrder) clone() State {
	s.Cart = s.Cart.Clone()
	return s
}

func (s AskPayment) clone() State {
	s.Cart = s.Cart.Clone()
	return s
}

func (s AskEmail) clone() State {
	s.Cart = s.Cart.Clone()
	return s
}
