package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"restaurant-chatbot/internal/common/config"
	"restaurant-chatbot/internal/common/logger"
)

var Version = "dev"

func main() {
	var cfgPath string
	rootCmd := &cobra.Command{
		Use:          "restaurant-chatbot",
		Short:        "WhatsApp ordering bot with Razorpay payments",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config (default: ./config.yaml, then deploy/config.example.yaml)")

	load := func() (config.App, error) {
		path := cfgPath
		if path == "" {
			if found, err := config.FindConfig(); err == nil {
				path = found
			}
		}
		cfg, err := config.Load(path)
		if err != nil {
			return config.App{}, err
		}
		logger.SetLevel(cfg.LogLevel)
		return cfg, nil
	}

	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(feedCmd(load))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
