package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/webwerkstatt-nord/lead-service/internal/app/bootstrap"
	appconfig "github.com/webwerkstatt-nord/lead-service/internal/config"
	"github.com/webwerkstatt-nord/lead-service/pkg/logging"
)

func main() {
	// Load .env if present (local development)
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting lead-service API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	runtime := bootstrap.New(context.Background(), cfg, logger)
	defer runtime.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      runtime.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
