package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MessageStatus is the delivery state of a message.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// MessageDirection tells whether the contact or the tenant authored a message.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// MessageType is the content kind of a message.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeVideo    MessageType = "video"
	MessageTypeDocument MessageType = "document"
)

// Message is a single chat message inside a conversation.
// Nullable wire fields decode to their zero value.
type Message struct {
	ID             string           `json:"id"`
	ExternalID     string           `json:"external_id,omitempty"`
	Content        string           `json:"content,omitempty"`
	MessageType    MessageType      `json:"message_type"`
	Direction      MessageDirection `json:"direction"`
	Status         MessageStatus    `json:"status"`
	MediaURL       string           `json:"media_url,omitempty"`
	SentByID       string           `json:"sent_by_id,omitempty"`
	SentByBot      bool             `json:"sent_by_bot"`
	ConversationID string           `json:"conversation_id"`
	CreatedAt      Time             `json:"created_at"`
}

// Conversation is one contact thread in the tenant inbox.
type Conversation struct {
	ID               string   `json:"id"`
	Phone            string   `json:"phone"`
	ContactName      string   `json:"contact_name,omitempty"`
	ContactAvatarURL string   `json:"contact_avatar_url,omitempty"`
	IsActive         bool     `json:"is_active"`
	IsBotActive      bool     `json:"is_bot_active"`
	IsUnread         bool     `json:"is_unread"`
	UnreadCount      int      `json:"unread_count"`
	LastMessageText  string   `json:"last_message_text,omitempty"`
	LastMessageAt    Time     `json:"last_message_at"`
	AssignedToID     string   `json:"assigned_to_id,omitempty"`
	Tags             []string `json:"tags"`
	TenantID         string   `json:"tenant_id"`
	LeadID           string   `json:"lead_id,omitempty"`
	CreatedAt        Time     `json:"created_at"`
	UpdatedAt        Time     `json:"updated_at"`
}

// Time is a wire timestamp.
//
// The API emits ISO-8601 with or without a zone offset; timestamps without an
// offset are read as UTC. JSON null decodes to the zero Time.
type Time struct {
	time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range wireTimeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp: %q", s)
}

// MarshalJSON implements json.Marshaler. The zero Time encodes as null.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
