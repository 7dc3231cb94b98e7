package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/domain"
	"github.com/zapfit/messaging-service/internal/events"
	"github.com/zapfit/messaging-service/internal/provider"
	"github.com/zapfit/messaging-service/internal/repository"
)

// ErrNoConnection is returned when the tenant has no connected channel left to
// send through. The message row is still written with ack=-1.
var ErrNoConnection = errors.New("Nenhuma conexão disponível para envio")

// mentionAllToken is reserved for the group mention feature and is stripped
// from the body before storage and sending.
const mentionAllToken = "@todos"

// SendInput describes one outbound send request.
type SendInput struct {
	Body      string
	MediaURL  string
	MediaType string
	FileName  string
	QuotedID  string
}

// SendResult reports the outcome of a send.
type SendResult struct {
	Success   bool
	Message   *domain.Message
	MessageID string
	Err       error
}

// SendService resolves the channel for a ticket and dispatches outbound
// messages through the matching provider sender.
type SendService struct {
	tickets     repository.TicketRepository
	contacts    repository.ContactRepository
	connections repository.ConnectionRepository
	messages    repository.MessageRepository
	hub         provider.Sender
	cloud       provider.Sender
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// SendDependencies bundles collaborators for the send service.
type SendDependencies struct {
	TicketRepo     repository.TicketRepository
	ContactRepo    repository.ContactRepository
	ConnectionRepo repository.ConnectionRepository
	MessageRepo    repository.MessageRepository
	HubSender      provider.Sender
	CloudSender    provider.Sender
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewSendService constructs the service.
func NewSendService(deps SendDependencies) *SendService {
	return &SendService{
		tickets:     deps.TicketRepo,
		contacts:    deps.ContactRepo,
		connections: deps.ConnectionRepo,
		messages:    deps.MessageRepo,
		hub:         deps.HubSender,
		cloud:       deps.CloudSender,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Send delivers content on the ticket's channel. The message row is always
// created, including for failed sends, so the conversation view can render the
// failure state; provider errors never propagate as panics or missing rows.
func (s *SendService) Send(ctx context.Context, ticketID string, input SendInput) (*SendResult, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	contact, err := s.contacts.GetByID(ctx, ticket.ContactID)
	if err != nil {
		return nil, err
	}

	body := stripMentionAll(input.Body)

	conn, err := s.resolveConnection(ctx, ticket)
	if err != nil {
		result := s.recordOutcome(ctx, ticket, contact, input, body, "", err)
		return result, nil
	}

	out := provider.OutboundMessage{
		To:        contact.Number,
		Body:      body,
		MediaURL:  input.MediaURL,
		MediaType: input.MediaType,
		FileName:  input.FileName,
		QuotedID:  input.QuotedID,
		IsGroup:   contact.IsGroup,
	}

	var providerID string
	var sendErr error
	switch {
	case conn.HasHubCredentials():
		providerID, sendErr = s.hub.Send(ctx, conn, out)
	case conn.HasCloudCredentials():
		providerID, sendErr = s.cloud.Send(ctx, conn, out)
	default:
		sendErr = &provider.SendError{Provider: "none", Reason: "Nenhuma credencial de envio disponível para a conexão"}
	}

	result := s.recordOutcome(ctx, ticket, contact, input, body, providerID, sendErr)
	return result, nil
}

// resolveConnection returns the ticket's connection, falling back to the
// tenant's most recent connected one and backfilling the ticket reference so
// later sends skip the lookup.
func (s *SendService) resolveConnection(ctx context.Context, ticket *domain.Ticket) (*domain.Connection, error) {
	conn, err := s.connections.GetByID(ctx, ticket.ConnectionID)
	if err == nil && conn.Status == domain.ConnectionStatusConnected {
		return conn, nil
	}

	fallback, fbErr := s.connections.GetFallbackForCompany(ctx, ticket.CompanyID)
	if fbErr != nil {
		return nil, ErrNoConnection
	}
	if fallback.ID != ticket.ConnectionID {
		if err := s.tickets.UpdateConnection(ctx, ticket.ID, fallback.ID); err != nil {
			s.logger.Warn("failed to backfill ticket connection",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		} else {
			ticket.ConnectionID = fallback.ID
		}
	}
	return fallback, nil
}

func (s *SendService) recordOutcome(ctx context.Context, ticket *domain.Ticket, contact *domain.Contact, input SendInput, body, providerID string, sendErr error) *SendResult {
	message := &domain.Message{
		CompanyID: ticket.CompanyID,
		TicketID:  ticket.ID,
		ContactID: contact.ID,
		Body:      body,
		FromMe:    true,
		RemoteJID: contact.Number,
	}
	if input.MediaURL != "" {
		message.MediaURL = &input.MediaURL
	}
	if input.MediaType != "" {
		message.MediaType = &input.MediaType
	}

	if sendErr == nil {
		message.Ack = domain.AckSent
		if providerID != "" {
			message.WID = &providerID
		}
	} else {
		message.Ack = domain.AckFailed
		message.DataJSON = marshalSendError(sendErr)
		s.logger.Warn("send failed",
			zap.String("ticket_id", ticket.ID), zap.Error(sendErr))
	}

	if err := s.messages.Create(ctx, message); err != nil {
		s.logger.Error("failed to persist outbound message",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	if err := s.tickets.UpdateLastMessage(ctx, ticket.ID, message.Body); err != nil {
		s.logger.Warn("failed to update ticket preview",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if err := s.contacts.UpdateLastInteraction(ctx, contact.ID, time.Now()); err != nil {
		s.logger.Warn("failed to update contact interaction",
			zap.String("contact_id", contact.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:      events.EventMessageSent,
		CompanyID: ticket.CompanyID,
		Payload: events.MessageSentPayload{
			MessageID: message.ID,
			TicketID:  ticket.ID,
			Success:   sendErr == nil,
		},
	})

	return &SendResult{
		Success:   sendErr == nil,
		Message:   message,
		MessageID: providerID,
		Err:       sendErr,
	}
}

func (s *SendService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stripMentionAll(body string) string {
	if !strings.Contains(body, mentionAllToken) {
		return body
	}
	stripped := strings.ReplaceAll(body, mentionAllToken, "")
	return strings.TrimSpace(strings.Join(strings.Fields(stripped), " "))
}

func marshalSendError(sendErr error) []byte {
	payload := map[string]any{"error": sendErr.Error()}
	var structured *provider.SendError
	if errors.As(sendErr, &structured) {
		payload["provider"] = structured.Provider
		if structured.StatusCode != 0 {
			payload["status_code"] = structured.StatusCode
		}
		if structured.Body != "" {
			payload["response"] = structured.Body
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}
