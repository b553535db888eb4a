package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"restaurant-chatbot/internal/common/config"
	"restaurant-chatbot/internal/common/logger"
	"restaurant-chatbot/internal/connections/rabbitmq"
	"restaurant-chatbot/internal/microservices/notificator"
)

func feedCmd(load func() (config.App, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "order-feed",
		Short: "Tail the order broadcast exchange and log every snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if !cfg.Rabbit.Enabled {
				return errors.New("order-feed needs rabbitmq.enabled=true")
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			mq, err := rabbitmq.Dial(cfg.Rabbit, false)
			if err != nil {
				return fmt.Errorf("rabbitmq: %w", err)
			}
			defer mq.Close()
			return notificator.Start(ctx, mq, cfg.Rabbit, logger.New("order-feed"))
		},
	}
}
