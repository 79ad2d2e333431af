package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/tiltvault/payments-gateway/config"
	"github.com/tiltvault/payments-gateway/internal/app"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	if err := app.Run(cfg); err != nil {
		log.Fatalf("App error: %s", err)
	}
}
