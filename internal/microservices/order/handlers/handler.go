package handlers

import (
	"github.com/go-chi/chi/v5"

	"restaurant-chatbot/internal/common/logger"
)

type Handler struct {
	OrderHandler      *OrderHandler
	RestaurantHandler *RestaurantHandler
}

func New(orders OrderService, restaurant RestaurantStatus, log *logger.Logger) *Handler {
	return &Handler{
		OrderHandler:      NewOrderHandler(orders, log),
		RestaurantHandler: NewRestaurantHandler(restaurant, log),
	}
}

// Routes mounts the owner API under /api.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/orders/{id}", h.OrderHandler.GetOrder)
		r.Put("/orders/{id}/status", h.OrderHandler.UpdateStatus)
		r.Get("/restaurant/status", h.RestaurantHandler.GetStatus)
		r.Put("/restaurant/status", h.RestaurantHandler.SetStatus)
	})
}
