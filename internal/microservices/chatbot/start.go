package chatbot

import (
	"context"

	"restaurant-chatbot/internal/common/config"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/microservices/chatbot/assistant"
	"restaurant-chatbot/internal/microservices/chatbot/handlers"
	"restaurant-chatbot/internal/microservices/chatbot/service"
	"restaurant-chatbot/internal/microservices/chatbot/session"
)

type Deps struct {
	Orders     service.Orders
	Payments   service.PaymentGateway
	Menu       service.Menu
	Restaurant service.Restaurant
	Notifier   service.Notifier
}

type Module struct {
	Sessions   *session.Store
	Sweeper    *session.Sweeper
	Dispatcher *service.Dispatcher
	Handler    *handlers.WebhookHandler
}

// Start builds the dialog engine behind the WhatsApp webhook and starts the
// idle-session sweeper. Without a Gemini key free text gets a canned reply.
func Start(ctx context.Context, d Deps, cfg config.App, log *logger.Logger) *Module {
	var ai service.Responder = assistant.Static{}
	if cfg.Gemini.APIKey != "" {
		g, err := assistant.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Restaurant.Name, log)
		if err != nil {
			log.Warn("assistant_disabled", err, nil)
		} else {
			ai = g
		}
	}

	sessions := session.NewStore(nil)
	engine := service.NewEngine(sessions, d.Orders, d.Payments, d.Menu, d.Restaurant, ai,
		service.Config{RestaurantName: cfg.Restaurant.Name, Contact: cfg.Restaurant.Contact}, log)
	dispatcher := service.NewDispatcher(engine, d.Notifier, log)

	sweeper := session.NewSweeper(sessions, d.Notifier, cfg.Session.TTL, cfg.Session.SweepInterval, log)
	sweeper.Start(ctx)

	return &Module{
		Sessions:   sessions,
		Sweeper:    sweeper,
		Dispatcher: dispatcher,
		Handler:    handlers.NewWebhookHandler(dispatcher, cfg.WhatsApp.VerifyToken, log),
	}
}
