package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapfit/messaging-service/internal/config"
	"github.com/zapfit/messaging-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func hubConn() *domain.Connection {
	return &domain.Connection{
		ID:         "conn-1",
		InstanceID: strPtr("inst-1"),
		APIToken:   strPtr("conn-token"),
	}
}

func cloudConn() *domain.Connection {
	return &domain.Connection{
		ID:            "conn-1",
		AccessToken:   strPtr("EAAG"),
		PhoneNumberID: strPtr("phone-1"),
	}
}

func TestHubSender_SendText(t *testing.T) {
	var got hubSendRequest
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-API-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "transient-1", "providerMessageId": "wamid.OK"})
	}))
	defer server.Close()

	sender := NewHubSender(config.HubConfig{BaseURL: server.URL, Token: "global-token"})
	id, err := sender.Send(context.Background(), hubConn(), OutboundMessage{To: "5511999990000", Body: "oi"})
	require.NoError(t, err)

	assert.Equal(t, "wamid.OK", id)
	assert.Equal(t, "conn-token", gotToken, "connection token overrides the global one")
	assert.Equal(t, "inst-1", got.From)
	assert.Equal(t, "5511999990000", got.To)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "text", got.Contents[0].Type)
	assert.Equal(t, "oi", got.Contents[0].Text)
}

func TestHubSender_SendFile(t *testing.T) {
	var got hubSendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "transient-2"})
	}))
	defer server.Close()

	sender := NewHubSender(config.HubConfig{BaseURL: server.URL})
	id, err := sender.Send(context.Background(), hubConn(), OutboundMessage{
		To: "5511999990000", Body: "legenda",
		MediaURL: "https://cdn/x.jpg", MediaType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.Equal(t, "transient-2", id, "transient id used when providerMessageId is absent")
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "file", got.Contents[0].Type)
	assert.Equal(t, "https://cdn/x.jpg", got.Contents[0].FileURL)
	assert.Equal(t, "legenda", got.Contents[0].FileCaption)
}

func TestHubSender_FallsBackToAltBaseURL(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"providerMessageId": "wamid.ALT"})
	}))
	defer good.Close()

	sender := NewHubSender(config.HubConfig{BaseURL: bad.URL, AltBaseURL: good.URL})
	id, err := sender.Send(context.Background(), hubConn(), OutboundMessage{To: "x", Body: "oi"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.ALT", id)
}

func TestHubSender_RejectionSurfacesSendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invalid destination"}`))
	}))
	defer server.Close()

	sender := NewHubSender(config.HubConfig{BaseURL: server.URL})
	_, err := sender.Send(context.Background(), hubConn(), OutboundMessage{To: "x", Body: "oi"})
	require.Error(t, err)

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "hub", sendErr.Provider)
	assert.Equal(t, http.StatusUnprocessableEntity, sendErr.StatusCode)
	assert.Contains(t, sendErr.Body, "invalid destination")
}

func TestHubSender_NoInstanceID(t *testing.T) {
	sender := NewHubSender(config.HubConfig{BaseURL: "http://unused"})
	_, err := sender.Send(context.Background(), &domain.Connection{ID: "conn-1"}, OutboundMessage{To: "x"})
	require.Error(t, err)
}

func TestCloudSender_SendText(t *testing.T) {
	var got cloudSendRequest
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]string{{"id": "wamid.CLOUD"}}})
	}))
	defer server.Close()

	sender := NewCloudSender(config.CloudConfig{GraphBaseURL: server.URL})
	id, err := sender.Send(context.Background(), cloudConn(), OutboundMessage{To: "5511999990000", Body: "oi"})
	require.NoError(t, err)

	assert.Equal(t, "wamid.CLOUD", id)
	assert.Equal(t, "Bearer EAAG", gotAuth)
	assert.Equal(t, "/phone-1/messages", gotPath)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "text", got.Type)
	require.NotNil(t, got.Text)
	assert.Equal(t, "oi", got.Text.Body)
}

func TestCloudSender_AudioDropsCaption(t *testing.T) {
	var got cloudSendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]string{{"id": "wamid.A"}}})
	}))
	defer server.Close()

	sender := NewCloudSender(config.CloudConfig{GraphBaseURL: server.URL})
	_, err := sender.Send(context.Background(), cloudConn(), OutboundMessage{
		To: "x", Body: "legenda", MediaURL: "https://cdn/a.ogg", MediaType: "audio/ogg",
	})
	require.NoError(t, err)

	assert.Equal(t, "audio", got.Type)
	require.NotNil(t, got.Audio)
	assert.Empty(t, got.Audio.Caption)
}

func TestCloudSender_GroupRejected(t *testing.T) {
	sender := NewCloudSender(config.CloudConfig{GraphBaseURL: "http://unused"})
	_, err := sender.Send(context.Background(), cloudConn(), OutboundMessage{To: "g", IsGroup: true})

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "cloud", sendErr.Provider)
}

func TestCloudSender_MissingCredentials(t *testing.T) {
	sender := NewCloudSender(config.CloudConfig{GraphBaseURL: "http://unused"})
	_, err := sender.Send(context.Background(), &domain.Connection{ID: "conn-1"}, OutboundMessage{To: "x"})
	require.Error(t, err)
}
