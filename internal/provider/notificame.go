package provider

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// NotificaMe hub callbacks arrive in two shapes: the event fields flat at the
// top level, or nested under a "message" key with sibling subscriptionId and
// channel fields. ParseNotificaMe accepts both.

type notificaMeVisitor struct {
	Name string `json:"name"`
}

type notificaMeContent struct {
	Type        string  `json:"type"`
	Text        string  `json:"text"`
	FileURL     string  `json:"fileUrl"`
	FileMime    string  `json:"fileMimeType"`
	FileCaption string  `json:"fileCaption"`
	FileName    string  `json:"fileName"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Payload     string  `json:"payload"`
}

type notificaMeStatus struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type notificaMeMessage struct {
	ID                string              `json:"id"`
	ProviderMessageID string              `json:"providerMessageId"`
	From              string              `json:"from"`
	To                string              `json:"to"`
	Direction         string              `json:"direction"`
	Channel           string              `json:"channel"`
	Timestamp         string              `json:"timestamp"`
	Contents          []notificaMeContent `json:"contents"`
	Visitor           *notificaMeVisitor  `json:"visitor"`
}

type notificaMeEnvelope struct {
	notificaMeMessage
	Type           string             `json:"type"`
	SubscriptionID string             `json:"subscriptionId"`
	Message        *notificaMeMessage `json:"message"`
	MessageID      string             `json:"messageId"`
	MessageStatus  *notificaMeStatus  `json:"messageStatus"`
}

// ParseNotificaMe normalizes a hub callback. Form-encoded bodies carrying only
// a generic "message" field are the hub's webhook verification ping and come
// back as KindValidation.
func ParseNotificaMe(body []byte, contentType string) (*NormalizedEvent, error) {
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("parse form body: %w", err)
		}
		if values.Get("message") != "" && values.Get("id") == "" && values.Get("channel") == "" {
			return &NormalizedEvent{Kind: KindValidation}, nil
		}
		return &NormalizedEvent{Kind: KindIgnored}, nil
	}

	var envelope notificaMeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse notificame body: %w", err)
	}
	raw := rawMap(body)

	if envelope.Type == "MESSAGE_STATUS" || envelope.MessageStatus != nil {
		label := ""
		if envelope.MessageStatus != nil {
			label = normalizeStatusCode(envelope.MessageStatus.Code)
		}
		messageID := envelope.MessageID
		if messageID == "" {
			messageID = envelope.ID
		}
		return &NormalizedEvent{
			Kind:              KindStatus,
			ChannelToken:      envelope.SubscriptionID,
			ProviderMessageID: messageID,
			RawMessageID:      messageID,
			StatusLabel:       label,
			Raw:               raw,
		}, nil
	}

	message := envelope.notificaMeMessage
	channelToken := envelope.SubscriptionID
	if envelope.Message != nil {
		message = *envelope.Message
		if channelToken == "" {
			channelToken = message.Channel
		}
	}

	direction := DirectionIn
	if strings.EqualFold(message.Direction, "OUT") {
		direction = DirectionOut
	}
	if channelToken == "" {
		// Flat inbound payloads address the channel in the "to" field.
		if direction == DirectionIn {
			channelToken = message.To
		} else {
			channelToken = message.From
		}
	}
	if channelToken == "" {
		channelToken = message.Channel
	}

	// Retries may reissue a new transient id for the same logical message, so
	// the stable providerMessageId wins when both are present.
	wid := message.ProviderMessageID
	if wid == "" {
		wid = message.ID
	}

	event := &NormalizedEvent{
		Kind:              KindMessage,
		ChannelToken:      channelToken,
		Direction:         direction,
		RemoteAddress:     message.From,
		ProviderMessageID: wid,
		RawMessageID:      message.ID,
		Timestamp:         parseTimestamp(message.Timestamp),
		Raw:               raw,
	}
	if direction == DirectionOut {
		event.RemoteAddress = message.To
	}
	if message.Visitor != nil {
		event.SenderName = message.Visitor.Name
	}
	event.IsGroup = strings.Contains(event.RemoteAddress, "@g.us") ||
		strings.HasSuffix(event.RemoteAddress, "-group")

	applyNotificaMeContents(event, message.Contents)
	return event, nil
}

func applyNotificaMeContents(event *NormalizedEvent, contents []notificaMeContent) {
	if len(contents) == 0 {
		event.Body = PlaceholderBody
		return
	}
	content := contents[0]
	switch content.Type {
	case "text":
		event.Body = content.Text
	case "file":
		event.MediaURL = content.FileURL
		event.MediaType = content.FileMime
		event.Body = mediaBody(content.FileMime, content.FileCaption, content.FileName)
	case "location":
		event.Body = fmt.Sprintf("Localização: %f, %f", content.Latitude, content.Longitude)
	case "contacts", "contact":
		event.Body = "Contato compartilhado"
	case "button", "reply":
		if content.Text != "" {
			event.Body = content.Text
		} else {
			event.Body = content.Payload
		}
	default:
		event.Body = PlaceholderBody
	}
	if event.Body == "" {
		event.Body = PlaceholderBody
	}
}

func mediaBody(mime, caption, fileName string) string {
	if caption != "" {
		return caption
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "[Imagem]"
	case strings.HasPrefix(mime, "video/"):
		return "[Vídeo]"
	case strings.HasPrefix(mime, "audio/"):
		return "[Áudio]"
	default:
		if fileName != "" {
			return fileName
		}
		return "[Documento]"
	}
}

func normalizeStatusCode(code string) string {
	label := strings.ToLower(strings.TrimSpace(code))
	if label == "rejected" {
		return "failed"
	}
	return label
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func rawMap(body []byte) map[string]any {
	raw := map[string]any{}
	_ = json.Unmarshal(body, &raw)
	return raw
}
