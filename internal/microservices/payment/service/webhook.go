package service

import (
	"encoding/json"
	"strconv"
	"strings"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/microservices/payment/gateway"
)

// Event is a gateway callback reduced to what reconciliation needs.
type Event struct {
	Status    string // lower-cased entity status
	PaymentID string // entity id: plink_* for link events, pay_* for payment events
	OrderID   int64
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink *entityEnvelope `json:"payment_link"`
		Payment     *entityEnvelope `json:"payment"`
	} `json:"payload"`
}

type entityEnvelope struct {
	Entity struct {
		ID     string          `json:"id"`
		Status string          `json:"status"`
		Notes  json.RawMessage `json:"notes"`
	} `json:"entity"`
}

// ParseWebhook decodes a Razorpay callback body. The payment_link entity wins
// when both are present. Every failure is a ValidationError.
func ParseWebhook(body []byte) (Event, error) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return Event{}, errs.NewValidationError("body", "invalid JSON").WithCause(err)
	}

	env := wb.Payload.PaymentLink
	if env == nil {
		env = wb.Payload.Payment
	}
	if env == nil {
		return Event{}, errs.NewValidationError("payload", "missing payment_link or payment entity")
	}

	status := strings.ToLower(strings.TrimSpace(env.Entity.Status))
	if status == "" {
		return Event{}, errs.NewValidationError("status", "missing payment status")
	}
	if env.Entity.ID == "" {
		return Event{}, errs.NewValidationError("id", "missing entity id")
	}

	// Razorpay sends notes as [] when there are none.
	var notes map[string]any
	if len(env.Entity.Notes) > 0 && env.Entity.Notes[0] == '{' {
		if err := json.Unmarshal(env.Entity.Notes, &notes); err != nil {
			return Event{}, errs.NewValidationError("notes", "invalid notes").WithCause(err)
		}
	}
	ref, _ := notes[gateway.OrderRefNote].(string)
	if ref == "" {
		return Event{}, errs.NewValidationError("notes", "missing internal order reference")
	}
	id, err := ParseOrderRef(ref)
	if err != nil {
		return Event{}, err
	}

	return Event{Status: status, PaymentID: env.Entity.ID, OrderID: id}, nil
}

// ParseOrderRef extracts 41 from "order_refid_41".
func ParseOrderRef(ref string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(ref), "_")
	if len(parts) != 3 || parts[0] != "order" || parts[1] != "refid" {
		return 0, errs.NewValidationError("order_ref", "expected order_refid_<id>, got "+strconv.Quote(ref))
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewValidationError("order_ref", "non-numeric order id in "+strconv.Quote(ref))
	}
	return id, nil
}
