package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llamagate/internal/api/router"
	"llamagate/internal/chat"
	appconfig "llamagate/internal/config"
	"llamagate/internal/http/handlers"
	"llamagate/internal/observability/metrics"
	"llamagate/internal/ollama"
	"llamagate/pkg/logging"
)

func main() {
	// Optional .env file for local development
	_ = godotenv.Load()

	cfg, err := appconfig.Load()
	if err != nil {
		logging.Default().Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting llamagate API server",
		"port", cfg.Port,
		"default_model", cfg.OllamaModel,
	)

	reg := prometheus.NewRegistry()
	chatMetrics := metrics.NewChatMetrics(reg)

	backend := ollama.New(ollama.Config{
		BaseURL:     cfg.OllamaHost,
		TagsTimeout: cfg.OllamaTagsTimeout,
		ChatTimeout: cfg.OllamaChatTimeout,
		Logger:      logger.Logger,
	})
	if !backend.Ping(context.Background()) {
		logger.Warn("ollama server not reachable at startup", "host", cfg.OllamaHost)
	}

	chatService := chat.NewService(backend, cfg.OllamaModel, logger, chatMetrics)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        handlers.NewChatHandler(chatService, logger),
		HealthHandler:      handlers.NewHealthHandler(backend, cfg.OllamaModel),
		APIKey:             cfg.APIKey,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Generation responses can take as long as the backend call itself.
		WriteTimeout: cfg.OllamaChatTimeout + 15*time.Second,
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
