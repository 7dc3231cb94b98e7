package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/events"
	"github.com/zapfit/messaging-service/internal/repository"
)

// SideEffectService fans out the downstream consequences of a freshly ingested
// message: campaign tag matching, conversion reporting, and the auto-reply
// agent chain. It never runs for duplicates; the ingest service only publishes
// after a new row is stored.
type SideEffectService struct {
	tags       repository.TagRepository
	agent      AgentInvoker
	pixel      ConversionReporter
	sender     *SendService
	dispatcher events.Dispatcher
	logger     *zap.Logger

	// spawn runs the detached agent chain; replaced in tests to run inline.
	spawn func(fn func())
}

// SideEffectDependencies bundles collaborators for the side-effect service.
type SideEffectDependencies struct {
	TagRepo    repository.TagRepository
	Agent      AgentInvoker
	Pixel      ConversionReporter
	Sender     *SendService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewSideEffectService creates the service.
func NewSideEffectService(deps SideEffectDependencies) *SideEffectService {
	return &SideEffectService{
		tags:       deps.TagRepo,
		agent:      deps.Agent,
		pixel:      deps.Pixel,
		sender:     deps.Sender,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		spawn:      func(fn func()) { go fn() },
	}
}

// RegisterHandlers subscribes to events.
func (s *SideEffectService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventMessageReceived, s.handleMessageReceived)
}

func (s *SideEffectService) handleMessageReceived(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageReceivedPayload)
	if !ok {
		return nil
	}

	// Tag attribution only applies to conversation openers; follow-up messages
	// inside an existing ticket never re-trigger campaigns.
	if payload.TicketWasCreated {
		s.matchCampaignTags(ctx, event.CompanyID, payload)
	}

	if !payload.IsGroup && strings.TrimSpace(payload.Body) != "" {
		s.triggerAgent(payload, event.CompanyID)
	}
	return nil
}

// matchCampaignTags applies the first tag whose campaign identifier appears in
// the message body. First match wins; the repository returns tags oldest first
// so the outcome is deterministic.
func (s *SideEffectService) matchCampaignTags(ctx context.Context, companyID string, payload events.MessageReceivedPayload) {
	tags, err := s.tags.ListCampaignTags(ctx, companyID)
	if err != nil {
		s.logger.Warn("failed to list campaign tags", zap.Error(err))
		return
	}
	body := strings.ToLower(payload.Body)
	for i := range tags {
		tag := tags[i]
		identifier := strings.ToLower(strings.TrimSpace(*tag.CampaignIdentifier))
		if identifier == "" || !strings.Contains(body, identifier) {
			continue
		}

		created, err := s.tags.AttachContactTag(ctx, payload.ContactID, tag.ID)
		if err != nil {
			s.logger.Warn("failed to attach contact tag",
				zap.String("tag_id", tag.ID), zap.Error(err))
			return
		}
		if created {
			s.logger.Info("campaign tag matched",
				zap.String("tag_id", tag.ID),
				zap.String("contact_id", payload.ContactID))
		}
		if tag.HasPixelCredentials() && s.pixel != nil {
			conversion := ConversionEvent{
				TagID:     tag.ID,
				ContactID: payload.ContactID,
				TicketID:  payload.TicketID,
				CompanyID: companyID,
				EventName: "Lead",
			}
			s.spawn(func() {
				if err := s.pixel.Report(context.Background(), conversion); err != nil {
					s.logger.Warn("conversion report failed",
						zap.String("tag_id", conversion.TagID), zap.Error(err))
				}
			})
		}
		return
	}
}

// triggerAgent invokes the auto-reply agent detached from the webhook request;
// the provider gets its response without waiting on this chain. If the agent
// answers and no human claimed the conversation, the reply is relayed through
// the outbound dispatcher. Errors anywhere in the chain are logged only — the
// original HTTP response has already been sent.
func (s *SideEffectService) triggerAgent(payload events.MessageReceivedPayload, companyID string) {
	if s.agent == nil {
		return
	}
	request := AgentRequest{
		TicketID:  payload.TicketID,
		Message:   payload.Body,
		CompanyID: companyID,
	}
	s.spawn(func() {
		ctx := context.Background()
		response, err := s.agent.Invoke(ctx, request)
		if err != nil {
			s.logger.Warn("agent invocation failed",
				zap.String("ticket_id", request.TicketID), zap.Error(err))
			return
		}
		if response.Skipped || strings.TrimSpace(response.Response) == "" {
			return
		}
		if s.sender == nil {
			return
		}
		result, err := s.sender.Send(ctx, request.TicketID, SendInput{Body: response.Response})
		if err != nil {
			s.logger.Warn("agent reply relay failed",
				zap.String("ticket_id", request.TicketID), zap.Error(err))
			return
		}
		if !result.Success {
			s.logger.Warn("agent reply send rejected",
				zap.String("ticket_id", request.TicketID), zap.Error(result.Err))
		}
	})
}
