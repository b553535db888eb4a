package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-chatbot/internal/common/httpx"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/microservices/payment/gateway"
	"restaurant-chatbot/internal/microservices/payment/service"
)

const maxWebhookBody = 1 << 20

type Reconciler interface {
	Reconcile(ctx context.Context, ev service.Event) (service.Outcome, error)
}

type CallbackHandler struct {
	reconciler Reconciler
	secret     string // empty disables signature checks
	log        *logger.Logger
}

func NewCallbackHandler(r Reconciler, webhookSecret string, log *logger.Logger) *CallbackHandler {
	return &CallbackHandler{reconciler: r, secret: webhookSecret, log: log}
}

func (h *CallbackHandler) Routes(r chi.Router) {
	r.Post("/api/payment/callback", h.Callback)
}

func (h *CallbackHandler) Callback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if h.secret != "" && !gateway.VerifySignature(body, r.Header.Get("X-Razorpay-Signature"), h.secret) {
		h.log.Warn("webhook_signature_rejected", nil, map[string]any{"remote": r.RemoteAddr})
		httpx.WriteProblem(w, http.StatusUnauthorized, "invalid_signature", "signature mismatch")
		return
	}

	ev, err := service.ParseWebhook(body)
	if err != nil {
		h.log.Warn("webhook_rejected", err, nil)
		httpx.WriteError(w, err)
		return
	}

	out, err := h.reconciler.Reconcile(r.Context(), ev)
	if err != nil {
		h.log.Error("webhook_failed", err, map[string]any{"order_id": ev.OrderID, "payment_id": ev.PaymentID})
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   string(out),
		"orderId":   ev.OrderID,
		"paymentId": ev.PaymentID,
	})
}
