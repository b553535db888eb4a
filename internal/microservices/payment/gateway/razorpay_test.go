package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/common/logger"
)

type fakeLinks struct {
	created   map[string]interface{}
	cancelled []string
	resp      map[string]interface{}
	err       error
}

func (f *fakeLinks) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.created = data
	return f.resp, f.err
}

func (f *fakeLinks) Cancel(id string, _ map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.cancelled = append(f.cancelled, id)
	return map[string]interface{}{"status": "cancelled"}, f.err
}

func TestCreateLinkRequest(t *testing.T) {
	links := &fakeLinks{resp: map[string]interface{}{"id": "plink_1", "short_url": "https://rzp.io/i/x"}}
	g := &Razorpay{links: links, log: logger.Nop()}

	link, err := g.CreateLink(context.Background(), LinkRequest{
		OrderID: 41, Name: "Asha", Phone: "911", Amount: decimal.RequireFromString("250.50"),
	})
	if err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if link.ID != "plink_1" || link.URL != "https://rzp.io/i/x" {
		t.Errorf("link = %+v", link)
	}
	if got := links.created["amount"]; got != int64(25050) {
		t.Errorf("amount = %v (%T), want 25050 paise", got, got)
	}
	notes := links.created["notes"].(map[string]interface{})
	if notes[OrderRefNote] != "order_refid_41" || links.created["reference_id"] != "order_refid_41" {
		t.Errorf("notes = %v, reference_id = %v", notes, links.created["reference_id"])
	}
	if _, ok := links.created["customer"].(map[string]interface{})["email"]; ok {
		t.Error("email sent although none was given")
	}
}

func TestCreateLinkFailureIsTransient(t *testing.T) {
	g := &Razorpay{links: &fakeLinks{err: errors.New("401")}, log: logger.Nop()}
	if _, err := g.CreateLink(context.Background(), LinkRequest{OrderID: 1, Amount: decimal.NewFromInt(1)}); !errs.IsTransient(err) {
		t.Errorf("err = %v, want TransientError", err)
	}
	g = &Razorpay{links: &fakeLinks{resp: map[string]interface{}{}}, log: logger.Nop()}
	if _, err := g.CreateLink(context.Background(), LinkRequest{OrderID: 1, Amount: decimal.NewFromInt(1)}); !errs.IsTransient(err) {
		t.Errorf("empty response err = %v", err)
	}
}

func TestCancelLinkSkipsNonLinks(t *testing.T) {
	links := &fakeLinks{}
	g := &Razorpay{links: links, log: logger.Nop()}
	for _, id := range []string{"", "  ", "pay_123"} {
		if err := g.CancelLink(context.Background(), id); err != nil {
			t.Errorf("CancelLink(%q) = %v", id, err)
		}
	}
	if err := g.CancelLink(context.Background(), "plink_9"); err != nil {
		t.Fatal(err)
	}
	if len(links.cancelled) != 1 || links.cancelled[0] != "plink_9" {
		t.Errorf("cancelled = %v", links.cancelled)
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"payment_link.paid"}`)
	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature(body, sig, "whsec") {
		t.Error("valid signature rejected")
	}
	if VerifySignature(body, sig, "other") || VerifySignature(body, "", "whsec") {
		t.Error("invalid signature accepted")
	}
}
