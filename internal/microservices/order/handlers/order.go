package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"restaurant-chatbot/internal/common/errs"
	"restaurant-chatbot/internal/common/httpx"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/domain"
)

type OrderService interface {
	FindByID(ctx context.Context, id int64) (domain.Order, error)
	Transition(ctx context.Context, id int64, target string) (domain.Order, error)
}

type OrderHandler struct {
	service OrderService
	log     *logger.Logger
}

func NewOrderHandler(s OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{service: s, log: log}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	o, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o.Snapshot())
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteProblem(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	o, err := h.service.Transition(r.Context(), id, req.Status)
	if err != nil {
		h.log.Warn("status_update_rejected", err, map[string]any{"order_id": id, "target": req.Status})
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o.Snapshot())
}

func orderID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewValidationError("id", "order id must be a positive integer")
	}
	return id, nil
}
