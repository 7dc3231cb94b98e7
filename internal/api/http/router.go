package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zapfit/messaging-service/internal/api/http/handlers"
	"github.com/zapfit/messaging-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Webhooks       *handlers.WebhookHandler
	Messages       *handlers.MessagesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	webhooks := app.Group("/webhooks")
	webhooks.Post("/notificame", cfg.Webhooks.NotificaMe)
	webhooks.Options("/notificame", cfg.Webhooks.Preflight)
	webhooks.Post("/uazapi", cfg.Webhooks.Uazapi)
	webhooks.Options("/uazapi", cfg.Webhooks.Preflight)
	webhooks.Post("/meta", cfg.Webhooks.MetaCloud)
	webhooks.Get("/meta", cfg.Webhooks.MetaVerify)
	webhooks.Options("/meta", cfg.Webhooks.Preflight)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Post("/messages/send", cfg.Messages.Send)
}
