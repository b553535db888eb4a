package domain

import "time"

// TopicOrders is the broadcast topic every order snapshot is published on.
const TopicOrders = "orders"

type OrderItemSnapshot struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderSnapshot is the wire shape pushed to dashboards after every change.
type OrderSnapshot struct {
	ID                 int64               `json:"id"`
	CustomerName       string              `json:"customerName"`
	UserPhone          string              `json:"userPhone"`
	PaymentStatus      PaymentStatus       `json:"paymentStatus"`
	PaymentMode        PaymentMode         `json:"paymentMode"`
	OrderStatus        OrderStatus         `json:"orderStatus"`
	TotalPrice         string              `json:"totalPrice"`
	OrderTime          time.Time           `json:"orderTime"`
	ExternalPaymentRef string              `json:"externalPaymentRef,omitempty"`
	OrderItems         []OrderItemSnapshot `json:"orderItems"`
}

func (o Order) Snapshot() OrderSnapshot {
	items := make([]OrderItemSnapshot, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemSnapshot{Name: it.Name, Price: it.Price.StringFixed(2), Quantity: it.Quantity})
	}
	return OrderSnapshot{
		ID:                 o.ID,
		CustomerName:       o.CustomerName,
		UserPhone:          o.Phone,
		PaymentStatus:      o.PaymentStatus,
		PaymentMode:        o.PaymentMode,
		OrderStatus:        o.OrderStatus,
		TotalPrice:         o.TotalPrice.StringFixed(2),
		OrderTime:          o.OrderTime,
		ExternalPaymentRef: o.ExternalPaymentRef,
		OrderItems:         items,
	}
}
