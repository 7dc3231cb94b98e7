package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/api/dto"
	"github.com/zapfit/messaging-service/internal/domain"
	"github.com/zapfit/messaging-service/internal/service"
	apperrors "github.com/zapfit/messaging-service/pkg/util"
)

// MessagesHandler exposes the outbound send endpoint to internal callers.
type MessagesHandler struct {
	sender *service.SendService
	logger *zap.Logger
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(sender *service.SendService, logger *zap.Logger) *MessagesHandler {
	return &MessagesHandler{sender: sender, logger: logger}
}

// Send handles POST /api/messages/send.
func (h *MessagesHandler) Send(c *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	if strings.TrimSpace(req.TicketID) == "" {
		return apperrors.NewValidationError("ticket_id is required", map[string]any{"ticket_id": "required"})
	}
	if strings.TrimSpace(req.Body) == "" && strings.TrimSpace(req.MediaURL) == "" {
		return apperrors.NewValidationError("body or media_url is required", nil)
	}

	result, err := h.sender.Send(c.UserContext(), req.TicketID, service.SendInput{
		Body:      req.Body,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
		FileName:  req.FileName,
		QuotedID:  req.QuotedMsgID,
	})
	if err != nil {
		return err
	}

	resp := dto.SendMessageResponse{
		Success: result.Success,
		Message: toMessageResponse(result.Message),
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
		if errors.Is(result.Err, service.ErrNoConnection) {
			return c.Status(fiber.StatusConflict).JSON(resp)
		}
		return c.Status(fiber.StatusBadGateway).JSON(resp)
	}
	return c.JSON(resp)
}

func toMessageResponse(m *domain.Message) *dto.MessageResponse {
	if m == nil {
		return nil
	}
	return &dto.MessageResponse{
		ID:        m.ID,
		TicketID:  m.TicketID,
		ContactID: m.ContactID,
		WID:       m.WID,
		Body:      m.Body,
		FromMe:    m.FromMe,
		MediaURL:  m.MediaURL,
		MediaType: m.MediaType,
		Ack:       m.Ack,
		CreatedAt: m.CreatedAt,
	}
}
