package main

import (
	"context"
	"log"
	"net/http"
	"time"

	webAdapter "docflow/internal/adapters/web"
	"docflow/internal/app"
	"docflow/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	if cfg.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET must be set for the server")
	}

	ctx := context.Background()
	svc, closeStore, err := app.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer closeStore()

	handler := webAdapter.NewHandler(svc, cfg.AllowedOrigins, cfg.JWTSecret)
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("server starting on :%s (store: %s)", cfg.ServerPort, cfg.Store)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
