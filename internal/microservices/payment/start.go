package payment

import (
	goredis "github.com/redis/go-redis/v9"

	"restaurant-chatbot/internal/common/config"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/microservices/payment/gateway"
	"restaurant-chatbot/internal/microservices/payment/handlers"
	"restaurant-chatbot/internal/microservices/payment/service"
)

type Module struct {
	Gateway    *gateway.Razorpay
	Reconciler *service.Reconciler
	Handler    *handlers.CallbackHandler
}

// Start wires the Razorpay gateway and webhook reconciliation. rdb may be nil,
// in which case replays are caught by the order store alone.
func Start(orders service.Orders, n service.Notifier, rdb *goredis.Client, cfg config.App, log *logger.Logger) *Module {
	var guard service.ReplayGuard
	if rdb != nil {
		guard = service.NewRedisGuard(rdb, cfg.Redis.ReplayTTL)
	}
	if cfg.Razorpay.WebhookSecret == "" {
		log.Warn("webhook_signature_disabled", nil, map[string]any{"reason": "razorpay.webhook_secret is empty"})
	}
	r := service.NewReconciler(orders, n, guard, cfg.Restaurant.Contact, log)
	return &Module{
		Gateway:    gateway.NewRazorpay(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, log),
		Reconciler: r,
		Handler:    handlers.NewCallbackHandler(r, cfg.Razorpay.WebhookSecret, log),
	}
}
