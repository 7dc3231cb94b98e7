package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zapfit/messaging-service/internal/config"
	"github.com/zapfit/messaging-service/internal/domain"
)

// HubSender delivers messages through the NotificaMe hub gateway. The hub is
// reachable on two base URLs that differ by a version path segment; both are
// tried before giving up.
type HubSender struct {
	cfg    config.HubConfig
	client *http.Client
}

// NewHubSender constructs the sender.
func NewHubSender(cfg config.HubConfig) *HubSender {
	return &HubSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type hubContent struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	FileURL     string `json:"fileUrl,omitempty"`
	FileMime    string `json:"fileMimeType,omitempty"`
	FileCaption string `json:"fileCaption,omitempty"`
	FileName    string `json:"fileName,omitempty"`
}

type hubSendRequest struct {
	From     string       `json:"from"`
	To       string       `json:"to"`
	Contents []hubContent `json:"contents"`
	ReplyTo  string       `json:"replyTo,omitempty"`
}

type hubSendResponse struct {
	ID                string `json:"id"`
	ProviderMessageID string `json:"providerMessageId"`
}

// Send posts the message to the hub and returns the provider message id.
func (s *HubSender) Send(ctx context.Context, conn *domain.Connection, msg OutboundMessage) (string, error) {
	if conn.InstanceID == nil || *conn.InstanceID == "" {
		return "", &SendError{Provider: "hub", Reason: "connection has no instance id"}
	}

	content := hubContent{Type: "text", Text: msg.Body}
	if msg.MediaURL != "" {
		content = hubContent{
			Type:        "file",
			FileURL:     msg.MediaURL,
			FileMime:    msg.MediaType,
			FileCaption: msg.Body,
			FileName:    msg.FileName,
		}
	}
	request := hubSendRequest{
		From:     *conn.InstanceID,
		To:       msg.To,
		Contents: []hubContent{content},
		ReplyTo:  msg.QuotedID,
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	token := s.cfg.Token
	if conn.APIToken != nil && *conn.APIToken != "" {
		token = *conn.APIToken
	}

	var lastErr error
	for _, base := range []string{s.cfg.BaseURL, s.cfg.AltBaseURL} {
		if base == "" {
			continue
		}
		id, err := s.post(ctx, base, token, payload)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &SendError{Provider: "hub", Reason: "no hub base url configured"}
	}
	return "", lastErr
}

func (s *HubSender) post(ctx context.Context, base, token string, payload []byte) (string, error) {
	url := strings.TrimRight(base, "/") + "/channels/whatsapp/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Token", token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("hub request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SendError{
			Provider:   "hub",
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Reason:     fmt.Sprintf("hub returned %d", resp.StatusCode),
		}
	}

	var parsed hubSendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("hub response: %w", err)
	}
	if parsed.ProviderMessageID != "" {
		return parsed.ProviderMessageID, nil
	}
	return parsed.ID, nil
}
