package v1

// Outbound is a client -> server frame.
type Outbound struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Ping is the heartbeat frame.
func Ping() Outbound { return Outbound{Type: TypePing} }

// SubscribeConversation asks the server to stream events for one conversation.
func SubscribeConversation(conversationID string) Outbound {
	return Outbound{Type: TypeSubscribeConversation, ConversationID: conversationID}
}

// UnsubscribeConversation stops the stream for one conversation.
func UnsubscribeConversation(conversationID string) Outbound {
	return Outbound{Type: TypeUnsubscribeConversation, ConversationID: conversationID}
}

// MarkAsRead clears the unread state of a conversation.
func MarkAsRead(conversationID string) Outbound {
	return Outbound{Type: TypeMarkAsRead, ConversationID: conversationID}
}

// Typing tells other agents this user is composing a reply.
func Typing(conversationID string) Outbound {
	return Outbound{Type: TypeTyping, ConversationID: conversationID}
}
