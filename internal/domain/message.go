package domain

import "time"

// Ack codes for message delivery state. AckFailed marks a send the provider
// rejected; the row is still persisted so the UI can render the failure.
const (
	AckFailed    = -1
	AckPending   = 0
	AckSent      = 1
	AckDelivered = 2
	AckRead      = 3
)

// Message records one inbound or outbound communication. Immutable after
// creation except for Ack, which the status handler updates as delivery
// callbacks arrive. WID is the provider-assigned message id and serves as the
// idempotency key for inbound dedup and the join key for status updates.
type Message struct {
	ID        string
	CompanyID string
	TicketID  string
	ContactID string
	WID       *string
	Body      string
	FromMe    bool
	MediaURL  *string
	MediaType *string
	RemoteJID string
	Ack       int
	DataJSON  []byte
	CreatedAt time.Time
}
