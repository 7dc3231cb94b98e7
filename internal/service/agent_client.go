package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/zapfit/messaging-service/internal/config"
)

// AgentRequest is the payload posted to the auto-reply agent service.
type AgentRequest struct {
	TicketID  string `json:"ticketId"`
	Message   string `json:"message"`
	CompanyID string `json:"companyId"`
}

// AgentResponse is what the agent returns. Skipped means a human already
// claimed the conversation and no reply should be relayed.
type AgentResponse struct {
	Skipped  bool   `json:"skipped"`
	Response string `json:"response"`
}

// AgentInvoker triggers the auto-reply agent.
type AgentInvoker interface {
	Invoke(ctx context.Context, req AgentRequest) (*AgentResponse, error)
}

// HTTPAgentClient calls the agent service over HTTP.
type HTTPAgentClient struct {
	cfg    config.AgentConfig
	client *http.Client
}

// NewHTTPAgentClient constructs the client.
func NewHTTPAgentClient(cfg config.AgentConfig) *HTTPAgentClient {
	return &HTTPAgentClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.AgentTimeout()},
	}
}

// Invoke posts the inbound message to the agent and decodes its reply.
func (c *HTTPAgentClient) Invoke(ctx context.Context, request AgentRequest) (*AgentResponse, error) {
	if c.cfg.URL == "" {
		return nil, errors.New("agent url not configured")
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("agent returned %d", resp.StatusCode)
	}

	var parsed AgentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("agent response: %w", err)
	}
	return &parsed, nil
}
