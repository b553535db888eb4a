package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-chatbot/internal/common/errs"
)

func TestWriteErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errs.NewValidationError("status", "unknown"), http.StatusBadRequest},
		{"not found", errs.NewNotFoundError("order", 1), http.StatusNotFound},
		{"business rule", errs.NewBusinessRuleError("delivered_is_final", "no"), http.StatusConflict},
		{"transient", errs.NewTransientError("db", errors.New("down")), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)
			if rec.Code != tt.want {
				t.Errorf("code = %d, want %d", rec.Code, tt.want)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["status"] != float64(tt.want) {
				t.Errorf("body status = %v", body["status"])
			}
		})
	}
}
