package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"restaurant-chatbot/internal/common/httpx"
	"restaurant-chatbot/internal/common/logger"
)

type RestaurantStatus interface {
	IsOpen(ctx context.Context) (bool, error)
	SetOpen(ctx context.Context, open bool) error
}

type RestaurantHandler struct {
	status RestaurantStatus
	log    *logger.Logger
}

func NewRestaurantHandler(s RestaurantStatus, log *logger.Logger) *RestaurantHandler {
	return &RestaurantHandler{status: s, log: log}
}

type openBody struct {
	Open *bool `json:"open"`
}

func (h *RestaurantHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	open, err := h.status.IsOpen(r.Context())
	if err != nil {
		httpx.WriteProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"open": open})
}

func (h *RestaurantHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body openBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Open == nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_json", `body must be {"open": true|false}`)
		return
	}
	if err := h.status.SetOpen(r.Context(), *body.Open); err != nil {
		httpx.WriteProblem(w, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	h.log.Info("restaurant_status_changed", map[string]any{"open": *body.Open})
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"open": *body.Open})
}
