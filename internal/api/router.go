// Package api assembles the HTTP server: middleware chain and routes.
package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/civic-india/backend/internal/api/handlers"
	"github.com/civic-india/backend/internal/metrics"
	"github.com/civic-india/backend/internal/middleware/ratelimit"
	"github.com/civic-india/backend/internal/middleware/security"
	"github.com/civic-india/backend/internal/middleware/validation"
	"github.com/civic-india/backend/pkg/config"
	"github.com/civic-india/backend/pkg/logger"
)

type Dependencies struct {
	Civic      handlers.CivicService
	Aggregator handlers.EvidenceAggregator
	// Ready lists dependencies checked by /api/v1/ready.
	Ready map[string]handlers.Pinger
	// RateLimiter may be nil to disable limiting.
	RateLimiter *ratelimit.RateLimiter
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

func NewApp(cfg *config.Config, deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "civic-india",
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	if deps.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORS.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.CORS.AllowOrigins,
		IsDevelopment:  cfg.Server.IsDevelopment,
	}))
	app.Use(requestMetrics())

	app.Get("/metrics", metrics.MetricsHandler())

	civicHandler := handlers.NewCivicHandler(deps.Civic)
	evidenceHandler := handlers.NewEvidenceHandler(deps.Aggregator)
	healthHandler := handlers.NewHealthHandler(deps.Ready)
	wsHandler := handlers.NewWebSocketHandler(deps.Civic)

	api := app.Group("/api/v1")

	api.Get("/health", healthHandler.Health)
	api.Get("/ready", healthHandler.Ready)

	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}
	api.Use(validation.Middleware(validation.Config{Logger: logger.Named("validation")}))

	api.Post("/civicAI", civicHandler.HandleCivicAI)
	api.Post("/factCheck", civicHandler.HandleFactCheck)
	api.Post("/grievanceDraft", civicHandler.HandleGrievanceDraft)
	api.Get("/history", civicHandler.GetHistory)
	api.Get("/evidence", evidenceHandler.GetEvidence)

	api.Use("/ws", wsHandler.Upgrade)
	api.Get("/ws", websocket.New(wsHandler.HandleConnection))

	return app
}

func requestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		endpoint := c.Route().Path
		metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		metrics.RequestTotal.WithLabelValues(endpoint, statusClass(status)).Inc()

		return err
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
