package provider

import (
	"time"

	"github.com/zapfit/messaging-service/internal/domain"
)

// EventKind classifies a normalized webhook callback.
type EventKind string

const (
	KindMessage    EventKind = "message"
	KindStatus     EventKind = "status"
	KindConnection EventKind = "connection"
	KindQRCode     EventKind = "qrcode"
	// KindValidation marks the provider-side webhook verification ping; it is
	// acknowledged without further processing.
	KindValidation EventKind = "validation"
	// KindIgnored marks recognized payloads that carry nothing to process.
	KindIgnored EventKind = "ignored"
)

// Direction of the message relative to this service.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// PlaceholderBody is persisted when a payload carries no extractable text.
const PlaceholderBody = "[Mensagem não suportada]"

// NormalizedEvent is the canonical internal form every provider adapter
// produces. Raw keeps the original payload for the provenance blob.
type NormalizedEvent struct {
	Kind              EventKind
	ChannelToken      string
	Direction         Direction
	RemoteAddress     string
	ProviderMessageID string
	// RawMessageID is the transient id some providers reissue on retry; it is
	// stored in provenance and used as the fallback join key for status
	// callbacks.
	RawMessageID string
	Timestamp    time.Time
	Body         string
	MediaURL     string
	MediaType    string
	SenderName   string
	IsGroup      bool
	// StatusLabel carries the provider status vocabulary for KindStatus events.
	StatusLabel string
	// ConnectionStatus carries the mapped state for KindConnection events.
	ConnectionStatus domain.ConnectionStatus
	Raw              map[string]any
}

// AckFromStatus maps the provider status vocabulary to an ack code. The second
// return is false for unrecognized labels, which callers treat as a no-op.
func AckFromStatus(label string) (int, bool) {
	switch label {
	case "sent":
		return domain.AckSent, true
	case "delivered":
		return domain.AckDelivered, true
	case "read":
		return domain.AckRead, true
	case "failed", "error":
		return domain.AckFailed, true
	default:
		return 0, false
	}
}
