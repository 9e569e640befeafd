// Package v1 defines the inbox realtime protocol v1 contract.
//
// Inbound frames are tagged JSON records ({"type": ...}) and are decoded at the
// boundary into a closed set of typed events (see Decode). Outbound frames are
// built with the constructors in outbound.go.
//
// This package is dependency-light and shared by the client and test servers.
package v1

import "encoding/json"

// Inbound type tags (server -> client).
const (
	TypeConnectionEstablished = "connection_established"
	TypeNewMessage            = "new_message"
	TypeConversationUpdated   = "conversation_updated"
	TypeMessageStatusUpdated  = "message_status_updated"
	TypeConversationAssigned  = "conversation_assigned"
	TypeUserTyping            = "user_typing"
	TypeMessagesRead          = "messages_read"
	TypeSubscribed            = "subscribed"
	TypeUnsubscribed          = "unsubscribed"
	TypePong                  = "pong"

	// Chat-provider events forwarded as-is.
	TypeWhatsAppConnectionUpdate = "whatsapp_connection_update"
	TypeProviderMessagesUpsert   = "MESSAGES_UPSERT"
	TypeProviderMessagesUpdate   = "MESSAGES_UPDATE"
	TypeProviderConnectionUpdate = "CONNECTION_UPDATE"
)

// Outbound type tags (client -> server).
const (
	TypePing                    = "ping"
	TypeSubscribeConversation   = "subscribe_conversation"
	TypeUnsubscribeConversation = "unsubscribe_conversation"
	TypeMarkAsRead              = "mark_as_read"
	TypeTyping                  = "typing"
)

// Event is one decoded inbound frame.
//
// The set of implementations is closed: every event embeds Frame, whose
// unexported marker keeps foreign types out.
type Event interface {
	Type() string
	Bytes() json.RawMessage
	event()
}

// Frame carries the wire tag and the undecoded bytes of an inbound frame.
type Frame struct {
	Tag string          `json:"type"`
	Raw json.RawMessage `json:"-"`
}

// Type returns the wire tag.
func (f Frame) Type() string { return f.Tag }

// Bytes returns the frame exactly as received.
func (f Frame) Bytes() json.RawMessage { return f.Raw }

func (Frame) event() {}

func (f *Frame) setTag(tag string) { f.Tag = tag }

// ConnectionEstablished is the server greeting after a successful upgrade.
type ConnectionEstablished struct {
	Frame
	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// NewMessage announces a message stored in a conversation.
type NewMessage struct {
	Frame
	ConversationID string  `json:"conversation_id"`
	Message        Message `json:"message"`
}

// ConversationUpdated carries the latest conversation snapshot.
type ConversationUpdated struct {
	Frame
	ConversationID string       `json:"conversation_id"`
	Conversation   Conversation `json:"conversation"`
}

// MessageStatusUpdated reports a delivery status transition.
type MessageStatusUpdated struct {
	Frame
	ConversationID string        `json:"conversation_id"`
	MessageID      string        `json:"message_id"`
	Status         MessageStatus `json:"status"`
}

// ConversationAssigned reports a new assignee. AssignedToID is empty when unassigned.
type ConversationAssigned struct {
	Frame
	ConversationID string `json:"conversation_id"`
	AssignedToID   string `json:"assigned_to_id"`
}

// UserTyping is relayed from another agent watching the same conversation.
type UserTyping struct {
	Frame
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// MessagesRead reports that a user cleared the unread state of a conversation.
type MessagesRead struct {
	Frame
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// Subscribed acknowledges subscribe_conversation.
type Subscribed struct {
	Frame
	ConversationID string `json:"conversation_id"`
}

// Unsubscribed acknowledges unsubscribe_conversation.
type Unsubscribed struct {
	Frame
	ConversationID string `json:"conversation_id"`
}

// Pong answers a heartbeat ping.
type Pong struct {
	Frame
}

// ProviderEvent is an upstream chat-provider event passed through untouched.
// Data holds the provider payload; its shape is owned by the provider.
type ProviderEvent struct {
	Frame
	Instance string          `json:"instance,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Unknown is any frame with a tag this package does not model.
type Unknown struct {
	Frame
}
