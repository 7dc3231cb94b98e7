package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Meta Cloud API webhooks nest everything under entry/changes/value; the
// channel token is the value.metadata phone_number_id.

type metaMediaObject struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

type metaMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *metaMediaObject `json:"image"`
	Video    *metaMediaObject `json:"video"`
	Audio    *metaMediaObject `json:"audio"`
	Document *metaMediaObject `json:"document"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

type metaStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

type metaValue struct {
	MessagingProduct string `json:"messaging_product"`
	Metadata         struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Contacts []struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
		WaID string `json:"wa_id"`
	} `json:"contacts"`
	Messages []metaMessage `json:"messages"`
	Statuses []metaStatus  `json:"statuses"`
}

type metaPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string    `json:"field"`
			Value metaValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseMetaCloud normalizes a Cloud API callback. Payloads without messages or
// statuses (template quality updates and the like) come back as KindIgnored.
func ParseMetaCloud(body []byte) (*NormalizedEvent, error) {
	var payload metaPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse meta cloud body: %w", err)
	}
	raw := rawMap(body)

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return &NormalizedEvent{Kind: KindIgnored, Raw: raw}, nil
	}
	value := payload.Entry[0].Changes[0].Value

	if len(value.Statuses) > 0 {
		status := value.Statuses[0]
		return &NormalizedEvent{
			Kind:              KindStatus,
			ChannelToken:      value.Metadata.PhoneNumberID,
			ProviderMessageID: status.ID,
			RawMessageID:      status.ID,
			StatusLabel:       strings.ToLower(status.Status),
			Raw:               raw,
		}, nil
	}
	if len(value.Messages) == 0 {
		return &NormalizedEvent{Kind: KindIgnored, Raw: raw}, nil
	}

	message := value.Messages[0]
	event := &NormalizedEvent{
		Kind:              KindMessage,
		ChannelToken:      value.Metadata.PhoneNumberID,
		Direction:         DirectionIn,
		RemoteAddress:     message.From,
		ProviderMessageID: message.ID,
		RawMessageID:      message.ID,
		Raw:               raw,
	}
	if len(value.Contacts) > 0 {
		event.SenderName = value.Contacts[0].Profile.Name
	}
	if secs, err := strconv.ParseInt(message.Timestamp, 10, 64); err == nil && secs > 0 {
		event.Timestamp = time.Unix(secs, 0).UTC()
	}

	applyMetaContent(event, message)
	return event, nil
}

func applyMetaContent(event *NormalizedEvent, message metaMessage) {
	switch message.Type {
	case "text":
		if message.Text != nil {
			event.Body = message.Text.Body
		}
	case "image":
		applyMetaMedia(event, message.Image, "[Imagem]")
	case "video":
		applyMetaMedia(event, message.Video, "[Vídeo]")
	case "audio":
		applyMetaMedia(event, message.Audio, "[Áudio]")
	case "document":
		label := "[Documento]"
		if message.Document != nil && message.Document.Filename != "" {
			label = message.Document.Filename
		}
		applyMetaMedia(event, message.Document, label)
	case "location":
		if message.Location != nil {
			event.Body = "Localização: " +
				formatCoordinate(message.Location.Latitude) + ", " +
				formatCoordinate(message.Location.Longitude)
		}
	case "contacts":
		event.Body = "Contato compartilhado"
	case "interactive":
		if message.Interactive != nil {
			switch {
			case message.Interactive.ButtonReply != nil:
				event.Body = replyText(message.Interactive.ButtonReply.Title, message.Interactive.ButtonReply.ID)
			case message.Interactive.ListReply != nil:
				event.Body = replyText(message.Interactive.ListReply.Title, message.Interactive.ListReply.ID)
			}
		}
	}
	if event.Body == "" {
		event.Body = PlaceholderBody
	}
}

func applyMetaMedia(event *NormalizedEvent, media *metaMediaObject, label string) {
	if media == nil {
		return
	}
	// Cloud API media requires a follow-up authorized download; the media id is
	// recorded so the retrieval job can resolve it.
	event.MediaURL = media.ID
	event.MediaType = media.MimeType
	if media.Caption != "" {
		event.Body = media.Caption
	} else {
		event.Body = label
	}
}

func replyText(title, id string) string {
	if title != "" {
		return title
	}
	return id
}
