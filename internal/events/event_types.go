package events

import (
	"time"

	"github.com/zapfit/messaging-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMessageReceived        EventType = "message_received"
	EventMessageSent            EventType = "message_sent"
	EventConnectionStateChanged EventType = "connection_state_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CompanyID string      `json:"company_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MessageReceivedPayload payload.
type MessageReceivedPayload struct {
	MessageID    string `json:"message_id"`
	TicketID     string `json:"ticket_id"`
	ContactID    string `json:"contact_id"`
	ConnectionID string `json:"connection_id"`
	Body         string `json:"body"`
	IsGroup      bool   `json:"is_group"`
	// TicketWasCreated is true when this message opened a new conversation;
	// campaign tag matching only runs on those.
	TicketWasCreated bool `json:"ticket_was_created"`
}

// MessageSentPayload payload.
type MessageSentPayload struct {
	MessageID string `json:"message_id"`
	TicketID  string `json:"ticket_id"`
	Success   bool   `json:"success"`
}

// ConnectionStateChangedPayload payload.
type ConnectionStateChangedPayload struct {
	ConnectionID string                  `json:"connection_id"`
	OldStatus    domain.ConnectionStatus `json:"old_status"`
	NewStatus    domain.ConnectionStatus `json:"new_status"`
}
