package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapfit/messaging-service/internal/domain"
	"github.com/zapfit/messaging-service/internal/events"
)

type sideEffectFixture struct {
	svc        *SideEffectService
	tags       *fakeTagRepo
	agent      *fakeAgent
	pixel      *fakePixel
	send       *sendFixture
	dispatcher events.Dispatcher
}

func newSideEffectFixture(tags []domain.Tag) *sideEffectFixture {
	f := &sideEffectFixture{
		tags:       &fakeTagRepo{tags: tags},
		agent:      &fakeAgent{response: &AgentResponse{Skipped: true}},
		pixel:      &fakePixel{},
		send:       newSendFixture(hubConnection()),
		dispatcher: events.NewInMemoryDispatcher(),
	}
	f.svc = NewSideEffectService(SideEffectDependencies{
		TagRepo:    f.tags,
		Agent:      f.agent,
		Pixel:      f.pixel,
		Sender:     f.send.svc,
		Dispatcher: f.dispatcher,
		Logger:     testLogger(),
	})
	f.svc.spawn = func(fn func()) { fn() } // run detached work inline
	f.svc.RegisterHandlers()
	return f
}

func (f *sideEffectFixture) publish(body string, ticketCreated, isGroup bool) {
	_ = f.dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventMessageReceived,
		CompanyID: "company-1",
		Payload: events.MessageReceivedPayload{
			MessageID:        "message-1",
			TicketID:         "ticket-1",
			ContactID:        "contact-1",
			ConnectionID:     "conn-1",
			Body:             body,
			IsGroup:          isGroup,
			TicketWasCreated: ticketCreated,
		},
	})
}

func campaignTag(id, identifier string) domain.Tag {
	return domain.Tag{ID: id, CompanyID: "company-1", Name: id, CampaignIdentifier: strPtr(identifier)}
}

func TestSideEffects_FirstMatchingTagWins(t *testing.T) {
	f := newSideEffectFixture([]domain.Tag{
		campaignTag("tag-older", "promoverao"),
		campaignTag("tag-newer", "promo"),
	})

	f.publish("vim pela PromoVerao de vocês", true, false)

	require.Len(t, f.tags.attached, 1)
	assert.Equal(t, "tag-older", f.tags.attached[0][1])
}

func TestSideEffects_NoTagMatchOnFollowUpMessage(t *testing.T) {
	f := newSideEffectFixture([]domain.Tag{campaignTag("tag-1", "promo")})

	f.publish("mensagem com promo dentro", false, false)

	assert.Empty(t, f.tags.attached)
}

func TestSideEffects_PixelFiredForCredentialedTag(t *testing.T) {
	tag := campaignTag("tag-1", "promo")
	tag.MetaPixelID = strPtr("pixel-1")
	tag.MetaAccessToken = strPtr("token-1")
	f := newSideEffectFixture([]domain.Tag{tag})

	f.publish("quero a promo", true, false)

	require.Len(t, f.pixel.events, 1)
	assert.Equal(t, "tag-1", f.pixel.events[0].TagID)
	assert.Equal(t, "Lead", f.pixel.events[0].EventName)
}

func TestSideEffects_NoPixelWithoutCredentials(t *testing.T) {
	f := newSideEffectFixture([]domain.Tag{campaignTag("tag-1", "promo")})

	f.publish("quero a promo", true, false)

	require.Len(t, f.tags.attached, 1)
	assert.Empty(t, f.pixel.events)
}

func TestSideEffects_AgentReplyRelayed(t *testing.T) {
	f := newSideEffectFixture(nil)
	f.agent.response = &AgentResponse{Response: "Olá! Posso agendar uma aula experimental?"}

	f.publish("quero treinar", true, false)

	require.Len(t, f.agent.requests, 1)
	assert.Equal(t, "quero treinar", f.agent.requests[0].Message)
	assert.Equal(t, "company-1", f.agent.requests[0].CompanyID)

	require.Len(t, f.send.hub.sent, 1)
	assert.Equal(t, "Olá! Posso agendar uma aula experimental?", f.send.hub.sent[0].Body)
}

func TestSideEffects_AgentSkippedNoRelay(t *testing.T) {
	f := newSideEffectFixture(nil)
	f.agent.response = &AgentResponse{Skipped: true, Response: "ignorado"}

	f.publish("quero treinar", true, false)

	require.Len(t, f.agent.requests, 1)
	assert.Empty(t, f.send.hub.sent)
}

func TestSideEffects_AgentNotInvokedForGroups(t *testing.T) {
	f := newSideEffectFixture(nil)

	f.publish("mensagem no grupo", true, true)

	assert.Empty(t, f.agent.requests)
}

func TestSideEffects_AgentNotInvokedForEmptyBody(t *testing.T) {
	f := newSideEffectFixture(nil)

	f.publish("   ", false, false)

	assert.Empty(t, f.agent.requests)
}

func TestSideEffects_AgentErrorSwallowed(t *testing.T) {
	f := newSideEffectFixture(nil)
	f.agent.err = assert.AnError

	f.publish("quero treinar", true, false)

	assert.Empty(t, f.send.hub.sent)
}
