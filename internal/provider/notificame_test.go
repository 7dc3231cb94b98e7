package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotificaMe_FlatText(t *testing.T) {
	body := []byte(`{
		"id": "transient-1",
		"providerMessageId": "wamid.ABC",
		"from": "5511999990000",
		"to": "channel-token-1",
		"direction": "IN",
		"timestamp": "2026-01-10T12:00:00Z",
		"visitor": {"name": "Maria"},
		"contents": [{"type": "text", "text": "olá, quero treinar"}]
	}`)

	event, err := ParseNotificaMe(body, "application/json")
	require.NoError(t, err)

	assert.Equal(t, KindMessage, event.Kind)
	assert.Equal(t, DirectionIn, event.Direction)
	assert.Equal(t, "channel-token-1", event.ChannelToken)
	assert.Equal(t, "5511999990000", event.RemoteAddress)
	assert.Equal(t, "wamid.ABC", event.ProviderMessageID)
	assert.Equal(t, "transient-1", event.RawMessageID)
	assert.Equal(t, "olá, quero treinar", event.Body)
	assert.Equal(t, "Maria", event.SenderName)
	assert.False(t, event.IsGroup)
	require.False(t, event.Timestamp.IsZero())
}

func TestParseNotificaMe_NestedMessage(t *testing.T) {
	body := []byte(`{
		"subscriptionId": "sub-9",
		"message": {
			"id": "m-2",
			"from": "5511888880000",
			"to": "channel-x",
			"direction": "IN",
			"contents": [{"type": "text", "text": "oi"}]
		}
	}`)

	event, err := ParseNotificaMe(body, "application/json")
	require.NoError(t, err)

	assert.Equal(t, KindMessage, event.Kind)
	assert.Equal(t, "sub-9", event.ChannelToken)
	assert.Equal(t, "m-2", event.ProviderMessageID)
	assert.Equal(t, "oi", event.Body)
}

func TestParseNotificaMe_OutboundDirection(t *testing.T) {
	body := []byte(`{
		"id": "m-3",
		"from": "channel-x",
		"to": "5511777770000",
		"direction": "OUT",
		"contents": [{"type": "text", "text": "resposta"}]
	}`)

	event, err := ParseNotificaMe(body, "application/json")
	require.NoError(t, err)

	assert.Equal(t, DirectionOut, event.Direction)
	assert.Equal(t, "channel-x", event.ChannelToken)
	assert.Equal(t, "5511777770000", event.RemoteAddress)
}

func TestParseNotificaMe_MediaWithoutCaption(t *testing.T) {
	body := []byte(`{
		"id": "m-4",
		"from": "5511999990000",
		"to": "channel-x",
		"direction": "IN",
		"contents": [{"type": "file", "fileUrl": "https://cdn/x.jpg", "fileMimeType": "image/jpeg"}]
	}`)

	event, err := ParseNotificaMe(body, "application/json")
	require.NoError(t, err)

	assert.Equal(t, "[Imagem]", event.Body)
	assert.Equal(t, "https://cdn/x.jpg", event.MediaURL)
	assert.Equal(t, "image/jpeg", event.MediaType)
}

func TestParseNotificaMe_DocumentFileName(t *testing.T) {
	body := []byte(`{
		"id": "m-5",
		"from": "5511999990000",
		"to": "channel-x",
		"direction": "IN",
		"contents": [{"type": "file", "fileUrl": "https://cdn/plan.pdf", "fileMimeType": "application/pdf", "fileName": "treino.pdf"}]
	}`)

	event, err := ParseNotificaMe(body, "application/json")
	require.NoError(t, err)

	assert.Equal(t, "treino.pdf", event.Body)
}

func TestParseNotificaMe_UnsupportedContent(t *testing.T) {
	body := []byte(`{
		"id": "m-6",
		"from": "5511999990000",
		"to": "channel-x",
		"direction": "IN",
		"contents": [{"type": "template"}]
	}`)

	event, err := ParseNotificaMe(body, "application/json")
	require.NoError(t, err)

	assert.Equal(t, PlaceholderBody, event.Body)
}

func TestParseNotificaMe_StatusEvent(t *testing.T) {
	body := []byte(`{
		"type": "MESSAGE_STATUS",
		"subscriptionId": "sub-9",
		"messageId": "wamid.ABC",
		"messageStatus": {"code": "REJECTED", "description": "blocked"}
	}`)

	event, err := ParseNotificaMe(body, "application/json")
	require.NoError(t, err)

	assert.Equal(t, KindStatus, event.Kind)
	assert.Equal(t, "wamid.ABC", event.ProviderMessageID)
	assert.Equal(t, "failed", event.StatusLabel)
}

func TestParseNotificaMe_FormValidationPing(t *testing.T) {
	event, err := ParseNotificaMe([]byte("message=test"), "application/x-www-form-urlencoded")
	require.NoError(t, err)
	assert.Equal(t, KindValidation, event.Kind)
}

func TestParseNotificaMe_GroupDetection(t *testing.T) {
	body := []byte(`{
		"id": "m-7",
		"from": "120363000000000000@g.us",
		"to": "channel-x",
		"direction": "IN",
		"contents": [{"type": "text", "text": "aviso"}]
	}`)

	event, err := ParseNotificaMe(body, "application/json")
	require.NoError(t, err)
	assert.True(t, event.IsGroup)
}

func TestParseNotificaMe_InvalidJSON(t *testing.T) {
	_, err := ParseNotificaMe([]byte("{nope"), "application/json")
	require.Error(t, err)
}
