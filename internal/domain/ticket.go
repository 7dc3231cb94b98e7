package domain

import "time"

// TicketStatus enumerates lifecycle states for conversation tickets.
type TicketStatus string

const (
	TicketStatusPending TicketStatus = "PENDING"
	TicketStatusOpen    TicketStatus = "OPEN"
	TicketStatusClosed  TicketStatus = "CLOSED"
)

// Ticket is a conversation thread between a connection and a contact.
// At most one ticket per (company, contact) is PENDING or OPEN at a time;
// the resolver enforces find-latest-or-create.
type Ticket struct {
	ID           string
	CompanyID    string
	ContactID    string
	ConnectionID string
	QueueID      *string
	UserID       *string
	Status       TicketStatus
	LastMessage  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
