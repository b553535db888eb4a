package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
)

func TestGenerateFallsBackToApology(t *testing.T) {
	tests := []struct {
		name string
		gen  generateFunc
		want string
	}{
		{"ok", func(context.Context, string) (string, error) { return " We have burgers! \n", nil }, "We have burgers!"},
		{"error", func(context.Context, string) (string, error) { return "", errors.New("quota") }, Apology},
		{"empty", func(context.Context, string) (string, error) { return "  ", nil }, Apology},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGemini(tt.gen, "The Craving", logger.Nop())
			if got := g.Generate(context.Background(), "hi", nil); got != tt.want {
				t.Errorf("Generate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPromptCarriesMenu(t *testing.T) {
	menu := []domain.MenuItem{{Name: "Burger", Price: decimal.NewFromInt(100)}}
	p := BuildPrompt("The Craving", "do you have pizza?", menu)
	for _, want := range []string{`"The Craving"`, "- Burger (₹100.00)", "Customer: do you have pizza?"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(BuildPrompt("X", "q", nil), "Menu is currently unavailable.") {
		t.Error("empty menu not stated")
	}
}
