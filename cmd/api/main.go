package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Runscount/RunScout/internal/adapters/http"
	"github.com/Runscount/RunScout/internal/adapters/memory"
	natsadapter "github.com/Runscount/RunScout/internal/adapters/nats"
	"github.com/Runscount/RunScout/internal/adapters/nominatim"
	"github.com/Runscount/RunScout/internal/adapters/valkey"
	"github.com/Runscount/RunScout/internal/core/ports"
	"github.com/Runscount/RunScout/internal/core/usecases"
	"github.com/Runscount/RunScout/internal/pkg/config"
	"github.com/Runscount/RunScout/internal/pkg/logging"
	"github.com/Runscount/RunScout/internal/pkg/metrics"
	"github.com/Runscount/RunScout/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("runscout-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Cache (optional: geocode lookups just go upstream without it)
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS (optional: live multi-tab sync degrades to per-socket echo)
	var publisher ports.RoutePublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Services
	fragments := memory.NewFragmentStore()
	sessionSvc := usecases.NewSessionService(fragments, publisher, time.Duration(cfg.Session.IdleTTL)*time.Second)
	geocoder := nominatim.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)
	geocodeSvc := usecases.NewGeocodeService(geocoder, cacheSvc, sessionSvc)

	metrics.RegisterSessionGauge(sessionSvc.Count)
	go sessionSvc.RunSweeper(ctx, time.Duration(cfg.Session.SweepInterval)*time.Second)

	deps := &http.Dependencies{
		Sessions: sessionSvc,
		Geocode:  geocodeSvc,
		NATS:     natsConn,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "RunScout API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.runscout.app",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
