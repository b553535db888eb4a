package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-chatbot/internal/common/httpx"
	"restaurant-chatbot/internal/common/logger"
)

const maxWebhookBody = 1 << 20

type Dispatcher interface {
	Submit(ctx context.Context, phone, text string)
}

// WebhookHandler is the WhatsApp Cloud API webhook: the GET handshake and
// inbound message delivery.
type WebhookHandler struct {
	dispatcher  Dispatcher
	verifyToken string
	log         *logger.Logger
}

func NewWebhookHandler(d Dispatcher, verifyToken string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: d, verifyToken: verifyToken, log: log}
}

func (h *WebhookHandler) Routes(r chi.Router) {
	r.Get("/webhook", h.Verify)
	r.Post("/webhook", h.Receive)
}

func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || h.verifyToken == "" || q.Get("hub.verify_token") != h.verifyToken {
		h.log.Warn("webhook_verification_rejected", nil, map[string]any{"mode": q.Get("hub.mode")})
		w.WriteHeader(http.StatusForbidden)
		return
	}
	h.log.Info("webhook_verified", nil)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, q.Get("hub.challenge"))
}

type inbound struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Receive queues every text message and acknowledges at once. Status
// callbacks and non-text messages are dropped.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var body inbound
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&body); err != nil {
		h.log.Warn("webhook_body_invalid", err, nil)
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	ctx := context.WithoutCancel(r.Context())
	queued := 0
	for _, e := range body.Entry {
		for _, c := range e.Changes {
			for _, m := range c.Value.Messages {
				if m.Type != "text" || m.From == "" {
					continue
				}
				h.dispatcher.Submit(ctx, m.From, m.Text.Body)
				queued++
			}
		}
	}
	if queued > 0 {
		h.log.Debug("messages_queued", map[string]any{"count": queued})
	}
	w.WriteHeader(http.StatusOK)
}
