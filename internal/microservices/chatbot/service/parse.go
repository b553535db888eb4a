package service

import (
	"regexp"
	"strconv"
	"strings"

	"restaurant-chatbot/internal/domain"
)

var digitRun = regexp.MustCompile(`\d+`)

func isStatusCommand(lower string) bool {
	return strings.Contains(lower, "status") || strings.Contains(lower, "track") || strings.Contains(lower, "where is my order")
}

func isDone(lower string) bool { return lower == "done" || lower == "finish" }

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseCartLine splits "2 burger" or "burger 2" into quantity and name. A lone
// word is a name with quantity 1. ok is false for a quantity outside
// 1..domain.MaxQuantity.
func parseCartLine(text string) (qty int, name string, ok bool) {
	words := strings.Fields(text)
	qty = 1
	if len(words) > 1 {
		switch {
		case isAllDigits(words[0]):
			n, err := strconv.Atoi(words[0])
			if err != nil {
				return 0, "", false
			}
			qty, words = n, words[1:]
		case isAllDigits(words[len(words)-1]):
			n, err := strconv.Atoi(words[len(words)-1])
			if err != nil {
				return 0, "", false
			}
			qty, words = n, words[:len(words)-1]
		}
	}
	if qty < 1 || qty > domain.MaxQuantity {
		return 0, "", false
	}
	return qty, strings.Join(words, " "), true
}
