package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentConfirmed PaymentStatus = "Confirmed"
	PaymentFailed    PaymentStatus = "Failed"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusAccepted  OrderStatus = "Accepted"
	StatusPreparing OrderStatus = "Preparing"
	StatusCompleted OrderStatus = "Completed"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

var orderStatuses = []OrderStatus{
	StatusPending, StatusAccepted, StatusPreparing, StatusCompleted, StatusDelivered, StatusCancelled,
}

// ParseOrderStatus normalizes s case-insensitively onto the canonical set.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range orderStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	// "canceled" shows up from some dashboards.
	if strings.EqualFold(s, "canceled") {
		return StatusCancelled, true
	}
	return "", false
}

// Terminal reports whether no further fulfillment transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type PaymentMode string

const (
	PaymentCash PaymentMode = "Cash"
	PaymentUPI  PaymentMode = "UPI"
	PaymentCard PaymentMode = "Card"
)

func ParsePaymentMode(s string) (PaymentMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentCash, true
	case "upi":
		return PaymentUPI, true
	case "card":
		return PaymentCard, true
	}
	return "", false
}

// Online reports whether the mode is settled through a payment link.
func (m PaymentMode) Online() bool { return m == PaymentUPI || m == PaymentCard }

type MenuItem struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
}

// MaxQuantity caps one cart line. Larger values are rejected, not clamped.
const MaxQuantity = 99

// OrderItem is the price snapshot taken when the order was created.
type OrderItem struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID                 int64
	CustomerName       string
	Phone              string
	PaymentStatus      PaymentStatus
	OrderStatus        OrderStatus
	PaymentMode        PaymentMode
	TotalPrice         decimal.Decimal
	OrderTime          time.Time
	ExternalPaymentRef string // empty when no link or payment is attached
	Items              []OrderItem
}

// Cart maps a canonical menu item name to a quantity.
type Cart map[string]int

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Names returns the item names in a stable order for rendering.
func (c Cart) Names() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
