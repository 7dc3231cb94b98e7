package provider

import (
	"context"

	"github.com/zapfit/messaging-service/internal/domain"
)

// OutboundMessage is the provider-independent send request.
type OutboundMessage struct {
	To        string
	Body      string
	MediaURL  string
	MediaType string
	FileName  string
	QuotedID  string
	IsGroup   bool
}

// Sender delivers one outbound message through a concrete provider and returns
// the provider-assigned message id.
type Sender interface {
	Send(ctx context.Context, conn *domain.Connection, msg OutboundMessage) (string, error)
}

// SendError carries the structured provider rejection so it can be recorded in
// the message provenance blob.
type SendError struct {
	Provider   string
	StatusCode int
	Body       string
	Reason     string
}

func (e *SendError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Provider + " send failed"
}
