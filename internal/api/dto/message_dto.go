package dto

import "time"

// SendMessageRequest is the body of POST /api/messages/send.
type SendMessageRequest struct {
	TicketID    string `json:"ticket_id"`
	Body        string `json:"body"`
	MediaURL    string `json:"media_url,omitempty"`
	MediaType   string `json:"media_type,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	QuotedMsgID string `json:"quoted_msg_id,omitempty"`
}

// MessageResponse mirrors the stored message row.
type MessageResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	ContactID string    `json:"contact_id"`
	WID       *string   `json:"wid,omitempty"`
	Body      string    `json:"body"`
	FromMe    bool      `json:"from_me"`
	MediaURL  *string   `json:"media_url,omitempty"`
	MediaType *string   `json:"media_type,omitempty"`
	Ack       int       `json:"ack"`
	CreatedAt time.Time `json:"created_at"`
}

// SendMessageResponse is the send endpoint reply.
type SendMessageResponse struct {
	Success bool             `json:"success"`
	Message *MessageResponse `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
}
