package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docqa/internal/config"
	"docqa/internal/docqa/api"
	"docqa/internal/docqa/service"
	"docqa/pkg/logger"
)

func main() {
	// 1. Load .env so the default credential is available before sessions start.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on the environment")
	}

	// 2. Load configuration.
	configPath := os.Getenv("DOCQA_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 3. Initialize logger.
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("DocQAService", "")
	appLogger.Info("Starting document QA service...")

	// 4. Wire providers and the orchestrator.
	providers, err := service.DefaultProviders(context.Background(), cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize providers: %v", err)
	}
	orchestrator := service.New(cfg, appLogger, providers)

	// 5. Start the HTTP server.
	handler := api.NewHandler(orchestrator, cfg.Uploads.Dir, appLogger)
	router := api.SetupRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Server shutdown failed: %v", err))
	}
	appLogger.Info("Server gracefully stopped")
}
