package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "weather-proxy/internal/api/http"
	"weather-proxy/internal/cache"
	"weather-proxy/internal/config"
	"weather-proxy/internal/scheduler"
	"weather-proxy/internal/weather"
	"weather-proxy/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound upstream calls. The per-attempt
	// timeout is enforced by the client via context.
	httpClient := &http.Client{}

	// Upstream client with retry decoration.
	openMeteo := providers.NewOpenMeteoClient(httpClient, cfg.BaseURL, cfg.APIKey, cfg.UpstreamTimeout)
	provider := providers.WithRetry(openMeteo, providers.RetryConfig{
		MaxRetries: cfg.RetryCount,
		BaseDelay:  cfg.RetryBaseDelay,
		Multiplier: cfg.RetryBackoffMultiplier,
		MaxJitter:  cfg.RetryMaxJitter,
	})

	// Coalescing cache with configured bounds.
	reportCache := cache.New(cfg.CacheTTL, cfg.CacheMaxSize, cfg.MaxWaitersPerKey)

	// Core service gluing cache and provider.
	service := weather.NewService(reportCache, provider)

	// Janitor that periodically sweeps expired cache entries.
	janitor := scheduler.New(reportCache, cfg.SweepInterval)
	if err := janitor.Start(); err != nil {
		log.Fatalf("failed to start janitor: %v", err)
	}
	defer janitor.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-proxy",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	// Liveness: the process is running.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	// Readiness: construction succeeded; never probes the upstream so an
	// Open-Meteo outage cannot cascade into restarts.
	app.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
