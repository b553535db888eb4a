package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"restaurant-chatbot/internal/common/config"
	"restaurant-chatbot/internal/common/httpx"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/connections/rabbitmq"
	"restaurant-chatbot/internal/connections/redis"
	"restaurant-chatbot/internal/microservices/chatbot"
	"restaurant-chatbot/internal/microservices/notificator"
	"restaurant-chatbot/internal/microservices/order"
	"restaurant-chatbot/internal/microservices/payment"
)

func serveCmd(load func() (config.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the WhatsApp webhook, payment callback and owner API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.App) error {
	log := logger.New("restaurant-chatbot")

	repo, closeDB, err := order.OpenStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer closeDB()

	var mq *rabbitmq.Client
	if cfg.Rabbit.Enabled {
		mq, err = rabbitmq.Dial(cfg.Rabbit, false)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer mq.Close()
		log.Info("rabbitmq_connected", map[string]any{"host": cfg.Rabbit.Host, "exchange": cfg.Rabbit.Exchange})
	}

	var rdb *goredis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Warn("redis_unavailable", err, map[string]any{"addr": cfg.Redis.Addr})
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	out, err := notificator.New(cfg.WhatsApp, mq, cfg.Rabbit.Exchange, log)
	if err != nil {
		return err
	}

	orders := order.Start(ctx, repo, out.Notifier, out.Broadcaster, cfg.Orders, log)
	defer orders.Orphans.Stop()

	payments := payment.Start(orders.Lifecycle, out.Notifier, rdb, cfg, log)

	bot := chatbot.Start(ctx, chatbot.Deps{
		Orders:     orders.Lifecycle,
		Payments:   payments.Gateway,
		Menu:       repo.MenuRepo,
		Restaurant: repo.RestaurantRepo,
		Notifier:   out.Notifier,
	}, cfg, log)
	defer bot.Sweeper.Stop()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	bot.Handler.Routes(r)
	payments.Handler.Routes(r)
	orders.Handler.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	log.Info("service_started", map[string]any{"addr": addr, "storage": cfg.Storage.Driver, "rabbitmq": cfg.Rabbit.Enabled})
	err = httpx.New(addr, r).Run(ctx)

	// let queued turns finish sending their replies
	bot.Dispatcher.Wait()
	log.Info("service_stopped", nil)
	return err
}
