package crm

import (
	"context"
	"net/url"
	"strconv"
)

// Conversations wraps /conversations.
type Conversations struct{ d Doer }

// List returns the first page of the inbox. perPage <= 0 uses the server default.
func (c *Conversations) List(ctx context.Context, perPage int) (Page[Conversation], error) {
	q := url.Values{}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	var out Page[Conversation]
	err := get(ctx, c.d, "/conversations", q, &out)
	return out, err
}

// Get returns a conversation with its messages.
func (c *Conversations) Get(ctx context.Context, id string) (ConversationWithMessages, error) {
	var out ConversationWithMessages
	err := get(ctx, c.d, "/conversations/"+seg(id), nil, &out)
	return out, err
}

// SendMessage posts an outbound message.
func (c *Conversations) SendMessage(ctx context.Context, id string, msg MessageCreate) (Message, error) {
	var out Message
	err := post(ctx, c.d, "/conversations/"+seg(id)+"/messages", msg, &out)
	return out, err
}

// MarkRead clears the unread state.
func (c *Conversations) MarkRead(ctx context.Context, id string) error {
	return post(ctx, c.d, "/conversations/"+seg(id)+"/read", nil, nil)
}

// ToggleBot flips the auto-reply bot and returns the updated conversation.
func (c *Conversations) ToggleBot(ctx context.Context, id string) (Conversation, error) {
	var out Conversation
	err := post(ctx, c.d, "/conversations/"+seg(id)+"/toggle-bot", nil, &out)
	return out, err
}
