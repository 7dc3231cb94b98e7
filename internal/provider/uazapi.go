package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zapfit/messaging-service/internal/domain"
)

// uazapi-style gateways discriminate callbacks by an event/type field and nest
// message content under per-kind sub-objects; exactly one is populated per
// message and determines the normalized body.

type uazapiKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type uazapiMediaContent struct {
	URL      string `json:"url"`
	MimeType string `json:"mimetype"`
	Caption  string `json:"caption"`
	FileName string `json:"fileName"`
}

type uazapiLocationContent struct {
	DegreesLatitude  float64 `json:"degreesLatitude"`
	DegreesLongitude float64 `json:"degreesLongitude"`
	Name             string  `json:"name"`
}

type uazapiButtonsResponse struct {
	SelectedButtonID    string `json:"selectedButtonId"`
	SelectedDisplayText string `json:"selectedDisplayText"`
}

type uazapiListResponse struct {
	Title             string `json:"title"`
	SingleSelectReply struct {
		SelectedRowID string `json:"selectedRowId"`
	} `json:"singleSelectReply"`
}

type uazapiMessageContent struct {
	Conversation        string                 `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
	ImageMessage           *uazapiMediaContent    `json:"imageMessage"`
	VideoMessage           *uazapiMediaContent    `json:"videoMessage"`
	AudioMessage           *uazapiMediaContent    `json:"audioMessage"`
	DocumentMessage        *uazapiMediaContent    `json:"documentMessage"`
	StickerMessage         *uazapiMediaContent    `json:"stickerMessage"`
	LocationMessage        *uazapiLocationContent `json:"locationMessage"`
	ContactMessage         *json.RawMessage       `json:"contactMessage"`
	ButtonsResponseMessage *uazapiButtonsResponse `json:"buttonsResponseMessage"`
	ListResponseMessage    *uazapiListResponse    `json:"listResponseMessage"`
}

type uazapiAck struct {
	ID        string `json:"id"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

type uazapiEnvelope struct {
	Event            string                `json:"event"`
	Type             string                `json:"type"`
	Instance         string                `json:"instance"`
	Token            string                `json:"token"`
	Status           string                `json:"status"`
	QRCode           string                `json:"qrcode"`
	Key              uazapiKey             `json:"key"`
	PushName         string                `json:"pushName"`
	MessageTimestamp int64                 `json:"messageTimestamp"`
	Message          *uazapiMessageContent `json:"message"`
	Ack              *uazapiAck            `json:"ack"`
}

// ParseUazapi normalizes a gateway callback.
func ParseUazapi(body []byte) (*NormalizedEvent, error) {
	var envelope uazapiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse uazapi body: %w", err)
	}
	raw := rawMap(body)

	kind := envelope.Event
	if kind == "" {
		kind = envelope.Type
	}

	channelToken := envelope.Instance
	if channelToken == "" {
		channelToken = envelope.Token
	}

	switch kind {
	case "connection", "connection.update":
		return &NormalizedEvent{
			Kind:             KindConnection,
			ChannelToken:     channelToken,
			ConnectionStatus: uazapiConnectionStatus(envelope.Status),
			Raw:              raw,
		}, nil
	case "qrcode":
		return &NormalizedEvent{
			Kind:         KindQRCode,
			ChannelToken: channelToken,
			Body:         envelope.QRCode,
			Raw:          raw,
		}, nil
	case "message.ack", "messages.ack":
		if envelope.Ack == nil {
			return &NormalizedEvent{Kind: KindIgnored, Raw: raw}, nil
		}
		messageID := envelope.Ack.MessageID
		if messageID == "" {
			messageID = envelope.Ack.ID
		}
		return &NormalizedEvent{
			Kind:              KindStatus,
			ChannelToken:      channelToken,
			ProviderMessageID: messageID,
			RawMessageID:      envelope.Ack.ID,
			StatusLabel:       strings.ToLower(envelope.Ack.Status),
			Raw:               raw,
		}, nil
	case "message", "messages", "messages.upsert":
		event := &NormalizedEvent{
			Kind:              KindMessage,
			ChannelToken:      channelToken,
			Direction:         DirectionIn,
			RemoteAddress:     envelope.Key.RemoteJID,
			ProviderMessageID: envelope.Key.ID,
			RawMessageID:      envelope.Key.ID,
			SenderName:        envelope.PushName,
			IsGroup:           strings.HasSuffix(envelope.Key.RemoteJID, "@g.us"),
			Raw:               raw,
		}
		if envelope.Key.FromMe {
			event.Direction = DirectionOut
		}
		if envelope.MessageTimestamp > 0 {
			event.Timestamp = time.Unix(envelope.MessageTimestamp, 0).UTC()
		}
		applyUazapiContent(event, envelope.Message)
		return event, nil
	default:
		return &NormalizedEvent{Kind: KindIgnored, Raw: raw}, nil
	}
}

func applyUazapiContent(event *NormalizedEvent, content *uazapiMessageContent) {
	if content == nil {
		event.Body = PlaceholderBody
		return
	}
	switch {
	case content.Conversation != "":
		event.Body = content.Conversation
	case content.ExtendedTextMessage != nil:
		event.Body = content.ExtendedTextMessage.Text
	case content.ImageMessage != nil:
		applyUazapiMedia(event, content.ImageMessage, "[Imagem]")
	case content.VideoMessage != nil:
		applyUazapiMedia(event, content.VideoMessage, "[Vídeo]")
	case content.AudioMessage != nil:
		applyUazapiMedia(event, content.AudioMessage, "[Áudio]")
	case content.DocumentMessage != nil:
		label := "[Documento]"
		if content.DocumentMessage.FileName != "" {
			label = content.DocumentMessage.FileName
		}
		applyUazapiMedia(event, content.DocumentMessage, label)
	case content.StickerMessage != nil:
		applyUazapiMedia(event, content.StickerMessage, "[Figurinha]")
	case content.LocationMessage != nil:
		event.Body = "Localização: " +
			formatCoordinate(content.LocationMessage.DegreesLatitude) + ", " +
			formatCoordinate(content.LocationMessage.DegreesLongitude)
	case content.ContactMessage != nil:
		event.Body = "Contato compartilhado"
	case content.ButtonsResponseMessage != nil:
		if content.ButtonsResponseMessage.SelectedDisplayText != "" {
			event.Body = content.ButtonsResponseMessage.SelectedDisplayText
		} else {
			event.Body = content.ButtonsResponseMessage.SelectedButtonID
		}
	case content.ListResponseMessage != nil:
		if content.ListResponseMessage.Title != "" {
			event.Body = content.ListResponseMessage.Title
		} else {
			event.Body = content.ListResponseMessage.SingleSelectReply.SelectedRowID
		}
	default:
		event.Body = PlaceholderBody
	}
	if event.Body == "" {
		event.Body = PlaceholderBody
	}
}

func applyUazapiMedia(event *NormalizedEvent, media *uazapiMediaContent, label string) {
	event.MediaURL = media.URL
	event.MediaType = media.MimeType
	if media.Caption != "" {
		event.Body = media.Caption
	} else {
		event.Body = label
	}
}

func uazapiConnectionStatus(status string) domain.ConnectionStatus {
	switch strings.ToLower(status) {
	case "open", "connected":
		return domain.ConnectionStatusConnected
	case "connecting":
		return domain.ConnectionStatusConnecting
	case "pairing", "qrcode":
		return domain.ConnectionStatusPairing
	default:
		return domain.ConnectionStatusDisconnected
	}
}

func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', 6, 64)
}
