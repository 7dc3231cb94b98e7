package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zapfit/messaging-service/internal/config"
)

// ConversionEvent is the payload posted to the conversion-report endpoint when
// a campaign tag with pixel credentials matched an inbound message.
type ConversionEvent struct {
	TagID     string `json:"tagId"`
	ContactID string `json:"contactId"`
	TicketID  string `json:"ticketId"`
	CompanyID string `json:"companyId"`
	EventName string `json:"eventName"`
}

// ConversionReporter fires conversion events; the response is ignored.
type ConversionReporter interface {
	Report(ctx context.Context, event ConversionEvent) error
}

// HTTPPixelClient posts conversion events over HTTP.
type HTTPPixelClient struct {
	cfg    config.PixelConfig
	client *http.Client
}

// NewHTTPPixelClient constructs the client.
func NewHTTPPixelClient(cfg config.PixelConfig) *HTTPPixelClient {
	return &HTTPPixelClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Report posts the event and discards the response body.
func (c *HTTPPixelClient) Report(ctx context.Context, event ConversionEvent) error {
	if c.cfg.URL == "" {
		return errors.New("pixel report url not configured")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("pixel request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pixel endpoint returned %d", resp.StatusCode)
	}
	return nil
}
