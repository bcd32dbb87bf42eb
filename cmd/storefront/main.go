package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/AxelTei/Jeux-Olympiques/docs"
	"github.com/AxelTei/Jeux-Olympiques/internal/app"
	"github.com/AxelTei/Jeux-Olympiques/internal/config"
)

// @title Jeux Olympiques Storefront API
// @version 1.0
// @description Storefront service for the Paris 2024 e-ticket shop: offers, cart, mock card payment and QR ticket verification.
// @host localhost:8080
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
