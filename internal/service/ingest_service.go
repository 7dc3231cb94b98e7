package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/domain"
	"github.com/zapfit/messaging-service/internal/events"
	"github.com/zapfit/messaging-service/internal/provider"
	"github.com/zapfit/messaging-service/internal/repository"
)

const dedupTTL = 24 * time.Hour

// Deduper is the fast-path duplicate filter in front of the database unique
// constraint. A redis outage degrades to always-first.
type Deduper interface {
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) bool
	Release(ctx context.Context, key string)
}

// IngestService persists normalized inbound messages exactly once and fans out
// the message_received event.
type IngestService struct {
	messages   repository.MessageRepository
	tickets    *TicketService
	contacts   *ContactService
	deduper    Deduper
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IngestDependencies bundles collaborators for the ingest service.
type IngestDependencies struct {
	MessageRepo repository.MessageRepository
	Tickets     *TicketService
	Contacts    *ContactService
	Deduper     Deduper
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	return &IngestService{
		messages:   deps.MessageRepo,
		tickets:    deps.Tickets,
		contacts:   deps.Contacts,
		deduper:    deps.Deduper,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Ingest stores the message unless its provider id was seen before. Providers
// deliver at least once with no ordering guarantee; wid dedup substitutes for
// ordering. The bool return reports whether a new message was stored.
func (s *IngestService) Ingest(ctx context.Context, event *provider.NormalizedEvent, conn *domain.Connection, contact *domain.Contact, ticket *domain.Ticket, ticketCreated bool) (*domain.Message, bool, error) {
	wid := event.ProviderMessageID

	dedupKey := ""
	if wid != "" {
		dedupKey = "dedup:wid:" + wid
		if s.deduper != nil && !s.deduper.ClaimOnce(ctx, dedupKey, dedupTTL) {
			s.logger.Info("duplicate ignored", zap.String("wid", wid))
			return nil, false, nil
		}
		if _, err := s.messages.GetByWID(ctx, wid); err == nil {
			s.logger.Info("duplicate ignored", zap.String("wid", wid))
			return nil, false, nil
		} else if !errors.Is(err, pgx.ErrNoRows) {
			s.release(ctx, dedupKey)
			return nil, false, err
		}
	}

	body := event.Body
	if body == "" {
		body = provider.PlaceholderBody
	}

	message := &domain.Message{
		CompanyID: conn.CompanyID,
		TicketID:  ticket.ID,
		ContactID: contact.ID,
		Body:      body,
		FromMe:    false,
		RemoteJID: event.RemoteAddress,
		Ack:       domain.AckDelivered,
		CreatedAt: event.Timestamp,
		DataJSON:  marshalProvenance(event.Raw, event.RawMessageID),
	}
	if wid != "" {
		message.WID = &wid
	}
	if event.MediaURL != "" {
		message.MediaURL = &event.MediaURL
	}
	if event.MediaType != "" {
		message.MediaType = &event.MediaType
	}

	if err := s.messages.Create(ctx, message); err != nil {
		if errors.Is(err, repository.ErrDuplicateMessage) {
			s.logger.Info("duplicate ignored", zap.String("wid", wid))
			return nil, false, nil
		}
		s.release(ctx, dedupKey)
		return nil, false, err
	}

	// Denormalized summaries are separate best-effort writes; a failure here
	// must not roll back the committed message.
	s.tickets.UpdateLastMessage(ctx, ticket.ID, message.Body)
	s.contacts.TouchInteraction(ctx, contact.ID, message.CreatedAt)

	s.publish(ctx, events.Event{
		Type:      events.EventMessageReceived,
		CompanyID: conn.CompanyID,
		Payload: events.MessageReceivedPayload{
			MessageID:        message.ID,
			TicketID:         ticket.ID,
			ContactID:        contact.ID,
			ConnectionID:     conn.ID,
			Body:             message.Body,
			IsGroup:          contact.IsGroup,
			TicketWasCreated: ticketCreated,
		},
	})
	return message, true, nil
}

func (s *IngestService) release(ctx context.Context, dedupKey string) {
	if dedupKey != "" && s.deduper != nil {
		s.deduper.Release(ctx, dedupKey)
	}
}

func (s *IngestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// marshalProvenance keeps the raw provider payload for forensic replay; the
// transient id is lifted to the top level so status callbacks referencing it
// can be joined later.
func marshalProvenance(raw map[string]any, rawID string) []byte {
	if raw == nil {
		raw = map[string]any{}
	}
	if rawID != "" {
		if _, ok := raw["id"]; !ok {
			raw["id"] = rawID
		}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	return data
}
