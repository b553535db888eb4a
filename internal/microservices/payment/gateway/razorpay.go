// Package gateway issues and revokes Razorpay payment links.
package gateway

import (
	"context"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/common/logger"
)

// OrderRefPrefix prefixes the internal order id in link notes and reference ids.
const OrderRefPrefix = "order_refid_"

// OrderRefNote is the notes key the webhook echoes back.
const OrderRefNote = "ResturantOrder_ID"

type LinkRequest struct {
	OrderID int64
	Name    string
	Email   string // optional
	Phone   string
	Amount  decimal.Decimal
}

type Link struct {
	ID  string
	URL string
}

// linkAPI is the part of the Razorpay client this package calls.
type linkAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Cancel(linkID string, data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Razorpay struct {
	links linkAPI
	log   *logger.Logger
}

func NewRazorpay(keyID, keySecret string, log *logger.Logger) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{links: client.PaymentLink, log: log}
}

func OrderRef(orderID int64) string {
	return fmt.Sprintf("%s%d", OrderRefPrefix, orderID)
}

func (g *Razorpay) CreateLink(ctx context.Context, req LinkRequest) (Link, error) {
	customer := map[string]interface{}{
		"name":    req.Name,
		"contact": req.Phone,
	}
	if req.Email != "" {
		customer["email"] = req.Email
	}
	ref := OrderRef(req.OrderID)
	data := map[string]interface{}{
		"amount":          req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), // paise
		"currency":        "INR",
		"accept_partial":  false,
		"reference_id":    ref,
		"customer":        customer,
		"notify":          map[string]interface{}{"sms": true, "email": req.Email != ""},
		"reminder_enable": true,
		"notes": map[string]interface{}{
			"order_type": "WhatsApp Bot",
			OrderRefNote: ref,
		},
	}

	resp, err := call(ctx, func() (map[string]interface{}, error) { return g.links.Create(data, nil) })
	if err != nil {
		return Link{}, errs.NewTransientError("razorpay", err)
	}
	id, _ := resp["id"].(string)
	url, _ := resp["short_url"].(string)
	if id == "" || url == "" {
		return Link{}, errs.NewTransientError("razorpay", fmt.Errorf("payment link response without id or short_url"))
	}
	g.log.Info("payment_link_created", map[string]any{"order_id": req.OrderID, "link_id": id})
	return Link{ID: id, URL: url}, nil
}

// CancelLink revokes a link. Empty ids and anything that is not a link id
// (a payment id stored after a webhook) are ignored.
func (g *Razorpay) CancelLink(ctx context.Context, linkID string) error {
	linkID = strings.TrimSpace(linkID)
	if linkID == "" || !strings.HasPrefix(linkID, "plink_") {
		return nil
	}
	if _, err := call(ctx, func() (map[string]interface{}, error) { return g.links.Cancel(linkID, nil, nil) }); err != nil {
		return errs.NewTransientError("razorpay", err)
	}
	g.log.Info("payment_link_cancelled", map[string]any{"link_id": linkID})
	return nil
}

// call runs a blocking SDK request but gives up when ctx ends. The SDK has no
// context support, so an abandoned request finishes in the background.
func call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	type result struct {
		resp map[string]interface{}
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := fn()
		ch <- result{resp, err}
	}()
	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// VerifySignature checks the X-Razorpay-Signature header against the raw body.
func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, secret)
}
