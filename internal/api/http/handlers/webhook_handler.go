package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/config"
	"github.com/zapfit/messaging-service/internal/provider"
	"github.com/zapfit/messaging-service/internal/service"
)

// WebhookHandler terminates provider callbacks. Each provider gets its own
// route because the wire shapes differ; everything downstream of the adapter
// is shared.
type WebhookHandler struct {
	pipeline *service.InboundService
	cloud    config.CloudConfig
	logger   *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(pipeline *service.InboundService, cloud config.CloudConfig, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{pipeline: pipeline, cloud: cloud, logger: logger}
}

// NotificaMe handles POST /webhooks/notificame.
func (h *WebhookHandler) NotificaMe(c *fiber.Ctx) error {
	event, err := provider.ParseNotificaMe(c.Body(), c.Get("Content-Type"))
	if err != nil {
		return h.ackMalformed(c, "notificame", err)
	}
	return h.process(c, "notificame", event)
}

// Uazapi handles POST /webhooks/uazapi.
func (h *WebhookHandler) Uazapi(c *fiber.Ctx) error {
	event, err := provider.ParseUazapi(c.Body())
	if err != nil {
		return h.ackMalformed(c, "uazapi", err)
	}
	return h.process(c, "uazapi", event)
}

// MetaCloud handles POST /webhooks/meta.
func (h *WebhookHandler) MetaCloud(c *fiber.Ctx) error {
	event, err := provider.ParseMetaCloud(c.Body())
	if err != nil {
		return h.ackMalformed(c, "meta", err)
	}
	return h.process(c, "meta", event)
}

// MetaVerify handles the GET verify-token challenge handshake.
func (h *WebhookHandler) MetaVerify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	if mode != "subscribe" || token != h.cloud.VerifyToken {
		return c.SendStatus(fiber.StatusForbidden)
	}
	h.logger.Info("cloud webhook verified")
	return c.SendString(challenge)
}

// Preflight answers the optional OPTIONS probe with permissive CORS headers.
func (h *WebhookHandler) Preflight(c *fiber.Ctx) error {
	c.Set("Access-Control-Allow-Origin", "*")
	c.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *WebhookHandler) process(c *fiber.Ctx, providerName string, event *provider.NormalizedEvent) error {
	if err := h.pipeline.Process(c.UserContext(), providerName, event); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// ackMalformed acknowledges unparseable bodies. Providers retry on non-2xx and
// a payload that never parses would retry forever; the drift is logged instead.
func (h *WebhookHandler) ackMalformed(c *fiber.Ctx, providerName string, err error) error {
	h.logger.Warn("malformed webhook payload ignored",
		zap.String("provider", providerName), zap.Error(err))
	return c.JSON(fiber.Map{"success": true})
}
