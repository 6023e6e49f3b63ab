package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vadim/igdm-console/internal/domain/common"
)

// MessageType represents the type of DM message
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeVideo MessageType = "video"
	MessageTypeAudio MessageType = "audio"
	MessageTypeFile  MessageType = "file"
)

// Message is a single DM in a conversation
type Message struct {
	ID          int64           `json:"id,omitempty"`
	MessageID   string          `json:"message_id,omitempty"`
	SenderID    string          `json:"sender_id,omitempty"`
	Text        string          `json:"message_text,omitempty"`
	Type        MessageType     `json:"message_type"`
	IsFromMe    bool            `json:"is_from_me"`
	IsAutomated bool            `json:"is_automated"`
	SentAt      common.Time     `json:"sent_at"`
	Attachments json.RawMessage `json:"attachments,omitempty"`
}

// wireMessage mirrors both payload shapes the backend produces: stored rows
// (numeric id, sent_at) and messages proxied from the Graph API (string id,
// created_time).
type wireMessage struct {
	ID          json.RawMessage `json:"id"`
	MessageID   string          `json:"message_id"`
	SenderID    string          `json:"sender_id"`
	Text        string          `json:"message_text"`
	Type        MessageType     `json:"message_type"`
	IsFromMe    bool            `json:"is_from_me"`
	IsAutomated bool            `json:"is_automated"`
	SentAt      common.Time     `json:"sent_at"`
	CreatedTime common.Time     `json:"created_time"`
	Attachments json.RawMessage `json:"attachments"`
}

// UnmarshalJSON decodes either payload shape into a Message
func (m *Message) UnmarshalJSON(b []byte) error {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*m = Message{
		MessageID:   w.MessageID,
		SenderID:    w.SenderID,
		Text:        w.Text,
		Type:        w.Type,
		IsFromMe:    w.IsFromMe,
		IsAutomated: w.IsAutomated,
		SentAt:      w.SentAt,
	}
	if m.Type == "" {
		m.Type = MessageTypeText
	}
	if m.SentAt.IsZero() {
		m.SentAt = w.CreatedTime
	}
	if len(w.Attachments) > 0 && string(w.Attachments) != "null" && string(w.Attachments) != "[]" {
		m.Attachments = w.Attachments
	}

	raw := strings.TrimSpace(string(w.ID))
	switch {
	case raw == "" || raw == "null":
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(w.ID, &s); err != nil {
			return fmt.Errorf("decoding message id: %w", err)
		}
		if m.MessageID == "" {
			m.MessageID = s
		}
	default:
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("decoding message id: %w", err)
		}
		m.ID = id
	}

	return nil
}

// Validate checks that the message can be identified
func (m Message) Validate() error {
	if m.ID <= 0 && m.MessageID == "" {
		return ErrMissingMessageID
	}
	return nil
}

// Key returns a stable identifier for rendering
func (m Message) Key() string {
	if m.MessageID != "" {
		return m.MessageID
	}
	return strconv.FormatInt(m.ID, 10)
}

// MaxMessageLength is the maximum length of a DM text message
const MaxMessageLength = 1000

// ValidateMessageText validates the text for an outgoing message
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// SendMessageRequest is the body of POST /api/instagram/send-message
type SendMessageRequest struct {
	RecipientID    string `json:"recipient_id"`
	MessageText    string `json:"message_text"`
	ConversationID int64  `json:"conversation_id,omitempty"`
}

// SendMessageResult is the response of a successful send
type SendMessageResult struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
}
