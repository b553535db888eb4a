package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want OrderStatus
		ok   bool
	}{
		{"accepted", StatusAccepted, true},
		{"  DELIVERED ", StatusDelivered, true},
		{"Cancelled", StatusCancelled, true},
		{"canceled", StatusCancelled, true},
		{"shipped", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrderStatus(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseOrderStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPaymentModeOnline(t *testing.T) {
	for _, in := range []string{"UPI", "card"} {
		m, ok := ParsePaymentMode(in)
		if !ok || !m.Online() {
			t.Errorf("%q should parse as an online mode", in)
		}
	}
	if m, _ := ParsePaymentMode("Cash"); m.Online() {
		t.Errorf("cash must not be online")
	}
	if _, ok := ParsePaymentMode("cheque"); ok {
		t.Errorf("cheque must not parse")
	}
}

func TestSnapshotCarriesItemsAndTotal(t *testing.T) {
	o := Order{
		ID:         7,
		TotalPrice: decimal.NewFromInt(250),
		Items: []OrderItem{
			{Name: "Burger", Price: decimal.NewFromInt(100), Quantity: 2},
			{Name: "Fries", Price: decimal.NewFromInt(50), Quantity: 1},
		},
	}
	s := o.Snapshot()
	if s.TotalPrice != "250.00" {
		t.Errorf("TotalPrice = %q", s.TotalPrice)
	}
	if len(s.OrderItems) != 2 || s.OrderItems[0].Price != "100.00" {
		t.Errorf("items = %+v", s.OrderItems)
	}
	if got := o.Items[0].LineTotal(); !got.Equal(decimal.NewFromInt(200)) {
		t.Errorf("LineTotal = %s", got)
	}
}

func TestCartCloneIsIndependent(t *testing.T) {
	c := Cart{"Burger": 2}
	cp := c.Clone()
	cp["Burger"] = 5
	cp["Fries"] = 1
	if c["Burger"] != 2 || len(c) != 1 {
		t.Errorf("original mutated: %v", c)
	}
	if names := cp.Names(); len(names) != 2 || names[0] != "Burger" {
		t.Errorf("Names() = %v", names)
	}
}
