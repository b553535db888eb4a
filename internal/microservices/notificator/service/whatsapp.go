package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/common/logger"
)

const graphURL = "https://graph.facebook.com"

// WhatsApp sends plain text messages through the Cloud API.
type WhatsApp struct {
	baseURL       string
	apiVersion    string
	phoneNumberID string
	token         string
	hc            *http.Client
	log           *logger.Logger
}

func NewWhatsApp(apiVersion, phoneNumberID, token string, log *logger.Logger) *WhatsApp {
	return &WhatsApp{
		baseURL:       graphURL,
		apiVersion:    apiVersion,
		phoneNumberID: phoneNumberID,
		token:         token,
		hc:            &http.Client{Timeout: 15 * time.Second},
		log:           log,
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (w *WhatsApp) Send(ctx context.Context, phone, text string) error {
	msg := textMessage{MessagingProduct: "whatsapp", To: phone, Type: "text"}
	msg.Text.Body = text
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(w.baseURL, "/"), w.apiVersion, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.hc.Do(req)
	if err != nil {
		return errs.NewTransientError("whatsapp", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		w.log.Debug("whatsapp_sent", map[string]any{"to": phone})
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	err = fmt.Errorf("whatsapp send: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return errs.NewTransientError("whatsapp", err)
	}
	return err
}

// LogNotifier stands in for WhatsApp when no credentials are configured.
type LogNotifier struct{ log *logger.Logger }

func NewLogNotifier(log *logger.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Send(_ context.Context, phone, text string) error {
	n.log.Info("message_not_sent", map[string]any{"to": phone, "text": text})
	return nil
}
