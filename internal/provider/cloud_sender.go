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

// CloudSender delivers messages through the official Cloud API using the
// connection's own access token and phone number id.
type CloudSender struct {
	cfg    config.CloudConfig
	client *http.Client
}

// NewCloudSender constructs the sender.
func NewCloudSender(cfg config.CloudConfig) *CloudSender {
	return &CloudSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type cloudText struct {
	Body string `json:"body"`
}

type cloudMedia struct {
	Link     string `json:"link"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type cloudSendRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             *cloudText  `json:"text,omitempty"`
	Image            *cloudMedia `json:"image,omitempty"`
	Video            *cloudMedia `json:"video,omitempty"`
	Audio            *cloudMedia `json:"audio,omitempty"`
	Document         *cloudMedia `json:"document,omitempty"`
}

type cloudSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Send posts the message to the Graph API and returns the provider message id.
// Group-addressed sends are rejected outright; the official API does not
// support arbitrary group delivery.
func (s *CloudSender) Send(ctx context.Context, conn *domain.Connection, msg OutboundMessage) (string, error) {
	if !conn.HasCloudCredentials() {
		return "", &SendError{Provider: "cloud", Reason: "connection has no cloud api credentials"}
	}
	if msg.IsGroup {
		return "", &SendError{Provider: "cloud", Reason: "cloud api does not support group sends"}
	}

	request := cloudSendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               msg.To,
	}
	switch {
	case msg.MediaURL == "":
		request.Type = "text"
		request.Text = &cloudText{Body: msg.Body}
	case strings.HasPrefix(msg.MediaType, "image/"):
		request.Type = "image"
		request.Image = &cloudMedia{Link: msg.MediaURL, Caption: msg.Body}
	case strings.HasPrefix(msg.MediaType, "video/"):
		request.Type = "video"
		request.Video = &cloudMedia{Link: msg.MediaURL, Caption: msg.Body}
	case strings.HasPrefix(msg.MediaType, "audio/"):
		// Audio carries no caption on the cloud api.
		request.Type = "audio"
		request.Audio = &cloudMedia{Link: msg.MediaURL}
	default:
		request.Type = "document"
		request.Document = &cloudMedia{Link: msg.MediaURL, Caption: msg.Body, Filename: msg.FileName}
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(s.cfg.GraphBaseURL, "/"), *conn.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+*conn.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloud api request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SendError{
			Provider:   "cloud",
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Reason:     fmt.Sprintf("cloud api returned %d", resp.StatusCode),
		}
	}

	var parsed cloudSendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("cloud api response: %w", err)
	}
	if len(parsed.Messages) == 0 {
		return "", &SendError{Provider: "cloud", Reason: "cloud api returned no message id"}
	}
	return parsed.Messages[0].ID, nil
}
