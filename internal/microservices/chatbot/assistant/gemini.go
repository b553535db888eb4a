// Package assistant answers free text outside an ordering session with a
// Gemini model grounded on the live menu.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
)

const Apology = "⚠️ Sorry, I couldn't answer that right now. Type *Order* to start ordering! 😊"

// generateFunc sends one prompt and returns the model text.
type generateFunc func(ctx context.Context, prompt string) (string, error)

type Gemini struct {
	generate   generateFunc
	restaurant string
	timeout    time.Duration
	log        *logger.Logger
}

func NewGemini(ctx context.Context, apiKey, model, restaurant string, log *logger.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.8),
		MaxOutputTokens: 2000,
	}
	gen := func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newGemini(gen, restaurant, log), nil
}

func newGemini(gen generateFunc, restaurant string, log *logger.Logger) *Gemini {
	return &Gemini{generate: gen, restaurant: restaurant, timeout: 20 * time.Second, log: log}
}

// Generate never fails: any model error or empty answer becomes Apology.
func (g *Gemini) Generate(ctx context.Context, question string, menu []domain.MenuItem) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.generate(ctx, BuildPrompt(g.restaurant, question, menu))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		g.log.Warn("ai_reply_failed", err, nil)
		return Apology
	}
	return strings.TrimSpace(text)
}

// Static is used when no model is configured.
type Static struct{}

func (Static) Generate(context.Context, string, []domain.MenuItem) string {
	return "Hi! 👋 Type *Order* to start ordering, or *status <order id>* to track an order."
}

func BuildPrompt(restaurant, question string, menu []domain.MenuItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a friendly restaurant assistant for "%s" on WhatsApp.

Help customers with questions about the menu, the ordering process and order tracking.
Keep replies short (2-3 sentences), warm and natural. Use emojis sparingly and bold only where needed.

Rules:
1. Only mention items from the menu below. Never invent items, prices or order statuses.
2. If an item is not on the menu, say "Sorry, we don't have [item] today" and suggest typing *Order*.
3. For order status, tell the customer to type 'status [Order ID]', e.g. 'status 123'.
4. To cancel an order in progress, tell them to type 'Cancel'. Confirmed orders need a call to the restaurant.
5. Politely steer off-topic questions back to food orders.
6. Always end by inviting the customer to type *Order*.
7. Payment options are Cash, UPI and Card.
`, restaurant)

	if len(menu) == 0 {
		b.WriteString("\nMenu is currently unavailable.\n")
	} else {
		b.WriteString("\nAVAILABLE MENU ITEMS:\n")
		for _, it := range menu {
			fmt.Fprintf(&b, "- %s (₹%s)\n", it.Name, it.Price.StringFixed(2))
		}
	}
	fmt.Fprintf(&b, "\nCustomer: %s\n\nAssistant:", question)
	return b.String()
}
