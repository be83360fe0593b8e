package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/samsoft00/gold-standard/internal/infra/app"
	"github.com/samsoft00/gold-standard/internal/infra/config"
)

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	return application.Run(ctx)
}

func main() {
	if err := run(); err != nil {
		log.Printf("admin-auth: %v", err)
		os.Exit(1)
	}
}
