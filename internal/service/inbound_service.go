package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/observability"
	"github.com/zapfit/messaging-service/internal/provider"
)

// InboundService runs one normalized webhook event through the full pipeline:
// channel resolution, contact and ticket resolution, ingestion. Status and
// connection callbacks short-circuit to their handlers.
type InboundService struct {
	channels *ChannelService
	contacts *ContactService
	tickets  *TicketService
	ingest   *IngestService
	status   *StatusService
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// InboundDependencies bundles collaborators for the inbound pipeline.
type InboundDependencies struct {
	Channels *ChannelService
	Contacts *ContactService
	Tickets  *TicketService
	Ingest   *IngestService
	Status   *StatusService
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewInboundService constructs the pipeline.
func NewInboundService(deps InboundDependencies) *InboundService {
	return &InboundService{
		channels: deps.Channels,
		contacts: deps.Contacts,
		tickets:  deps.Tickets,
		ingest:   deps.Ingest,
		status:   deps.Status,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Process handles one event. Recognized-but-irrelevant events return nil so
// the webhook answers 200 and the provider does not retry; only an unresolved
// channel token or an unexpected failure surfaces as an error.
func (s *InboundService) Process(ctx context.Context, providerName string, event *provider.NormalizedEvent) error {
	switch event.Kind {
	case provider.KindValidation, provider.KindIgnored:
		s.count(providerName, string(event.Kind))
		return nil
	}

	conn, err := s.channels.Resolve(ctx, event.ChannelToken)
	if err != nil {
		s.count(providerName, "unauthorized")
		return err
	}

	switch event.Kind {
	case provider.KindConnection, provider.KindQRCode:
		s.count(providerName, "connection")
		return s.channels.ApplyState(ctx, conn, event)

	case provider.KindStatus:
		s.count(providerName, "status")
		return s.status.Apply(ctx, event.ProviderMessageID, event.RawMessageID, event.StatusLabel)

	case provider.KindMessage:
		if event.Direction == provider.DirectionOut {
			// Echo of something this service sent; the send path already
			// persisted it.
			s.count(providerName, "outbound_echo")
			return nil
		}
		contact, err := s.contacts.Resolve(ctx, conn.CompanyID, event.RemoteAddress, event.SenderName, event.IsGroup)
		if err != nil {
			return err
		}
		ticket, ticketCreated, err := s.tickets.Resolve(ctx, contact, conn)
		if err != nil {
			return err
		}
		_, ingested, err := s.ingest.Ingest(ctx, event, conn, contact, ticket, ticketCreated)
		if err != nil {
			return err
		}
		if ingested {
			s.count(providerName, "message")
		} else {
			s.count(providerName, "duplicate")
		}
		return nil

	default:
		s.count(providerName, "unknown_kind")
		return nil
	}
}

func (s *InboundService) count(providerName, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordWebhookEvent(providerName, outcome)
}
