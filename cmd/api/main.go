package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bookpilot/booking-nlu/internal/api/router"
	appconfig "github.com/bookpilot/booking-nlu/internal/config"
	"github.com/bookpilot/booking-nlu/internal/http/handlers"
	"github.com/bookpilot/booking-nlu/internal/nlu"
	"github.com/bookpilot/booking-nlu/internal/observability/metrics"
	"github.com/bookpilot/booking-nlu/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-nlu API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Metrics registry
	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	// Optional Redis-backed tenant alias catalog
	var catalog *nlu.AliasCatalog
	if cfg.RedisAddr != "" {
		redisOptions := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(redisOptions)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis not available, tenant aliases disabled", "error", err.Error())
		} else {
			catalog = nlu.NewAliasCatalog(client, cfg.AliasCacheTTL, logger)
		}
		cancel()
	}

	// Pipeline and handlers
	pipeline := nlu.NewPipeline(nlu.DefaultVocabulary(), pipelineMetrics, logger)
	resolveHandler := handlers.NewResolveHandler(pipeline, catalog, nlu.Domain(cfg.DefaultDomain), cfg.DefaultTimezone, logger)
	var aliasHandler *handlers.AliasHandler
	if catalog != nil {
		aliasHandler = handlers.NewAliasHandler(catalog, logger)
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		ResolveHandler:     resolveHandler,
		AliasHandler:       aliasHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
