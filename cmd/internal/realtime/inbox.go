package realtime

import (
	"sort"
	"sync"
	"time"

	v1 "leadflow/shared/contracts/realtime/v1"
)

// Inbox is an in-memory view of recent conversation traffic fed by realtime
// events. It supports:
//   - Add: idempotent per message id, bounded per conversation
//   - Recent: the newest messages of a conversation in arrival order
//   - Conversations: summaries ordered by last activity
type Inbox struct {
	mu    sync.Mutex
	max   int
	convs map[string]*inboxConv
}

type inboxConv struct {
	conv     v1.Conversation
	hasConv  bool
	seen     map[string]struct{} // message ids currently in msgs
	msgs     []v1.Message        // arrival order
	lastSeen time.Time
}

// ConversationSummary is one row of Inbox.Conversations.
type ConversationSummary struct {
	ID              string    `json:"id"`
	ContactName     string    `json:"contact_name,omitempty"`
	AssignedToID    string    `json:"assigned_to_id,omitempty"`
	UnreadCount     int       `json:"unread_count"`
	LastMessageText string    `json:"last_message_text,omitempty"`
	LastActivity    time.Time `json:"last_activity"`
	Cached          int       `json:"cached"`
}

// NewInbox constructs an Inbox keeping at most max messages per conversation.
func NewInbox(max int) *Inbox {
	if max <= 0 {
		max = inboxMaxMessages
	}
	return &Inbox{max: max, convs: make(map[string]*inboxConv)}
}

func (b *Inbox) get(id string) *inboxConv {
	c := b.convs[id]
	if c == nil {
		c = &inboxConv{seen: make(map[string]struct{})}
		b.convs[id] = c
	}
	return c
}

// Add records a message. It returns false when the id was already cached.
func (b *Inbox) Add(m v1.Message, at time.Time) bool {
	if m.ConversationID == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.get(m.ConversationID)
	if m.ID != "" {
		if _, dup := c.seen[m.ID]; dup {
			return false
		}
		c.seen[m.ID] = struct{}{}
	}
	c.msgs = append(c.msgs, m)
	c.lastSeen = at
	if m.Direction == v1.DirectionInbound {
		c.conv.UnreadCount++
		c.conv.IsUnread = true
	}
	if m.Content != "" {
		c.conv.LastMessageText = m.Content
	}

	if over := len(c.msgs) - b.max; over > 0 {
		for _, old := range c.msgs[:over] {
			delete(c.seen, old.ID)
		}
		c.msgs = append([]v1.Message(nil), c.msgs[over:]...)
	}
	return true
}

// UpdateStatus sets the delivery status of a cached message.
func (b *Inbox) UpdateStatus(conversationID, messageID string, st v1.MessageStatus) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.convs[conversationID]
	if c == nil {
		return false
	}
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].ID == messageID {
			c.msgs[i].Status = st
			return true
		}
	}
	return false
}

// SetConversation replaces the conversation snapshot.
func (b *Inbox) SetConversation(conv v1.Conversation, at time.Time) {
	if conv.ID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.get(conv.ID)
	c.conv = conv
	c.hasConv = true
	c.lastSeen = at
}

// Assign records a new assignee; "" means unassigned.
func (b *Inbox) Assign(conversationID, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.get(conversationID)
	c.conv.ID = conversationID
	c.conv.AssignedToID = userID
}

// MarkRead clears the unread state.
func (b *Inbox) MarkRead(conversationID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c := b.convs[conversationID]; c != nil {
		c.conv.UnreadCount = 0
		c.conv.IsUnread = false
	}
}

// Recent returns up to limit of the newest cached messages, oldest first.
func (b *Inbox) Recent(conversationID string, limit int) []v1.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.convs[conversationID]
	if c == nil || len(c.msgs) == 0 {
		return nil
	}
	start := 0
	if limit > 0 && len(c.msgs) > limit {
		start = len(c.msgs) - limit
	}
	return append([]v1.Message(nil), c.msgs[start:]...)
}

// Conversations returns a summary per known conversation, most recent first.
func (b *Inbox) Conversations() []ConversationSummary {
	b.mu.Lock()
	out := make([]ConversationSummary, 0, len(b.convs))
	for id, c := range b.convs {
		last := c.lastSeen
		if c.hasConv && c.conv.LastMessageAt.After(last) {
			last = c.conv.LastMessageAt.Time
		}
		out = append(out, ConversationSummary{
			ID:              id,
			ContactName:     c.conv.ContactName,
			AssignedToID:    c.conv.AssignedToID,
			UnreadCount:     c.conv.UnreadCount,
			LastMessageText: c.conv.LastMessageText,
			LastActivity:    last,
			Cached:          len(c.msgs),
		})
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}
