package realtime

import (
	"log/slog"
	"sync"
	"time"

	v1 "leadflow/shared/contracts/realtime/v1"
)

// Snapshot is a point-in-time view of a Monitor.
type Snapshot struct {
	Connected     bool             `json:"connected"`
	State         string           `json:"state"`
	LastEventType string           `json:"last_event_type,omitempty"`
	LastEventAt   time.Time        `json:"last_event_at,omitzero"`
	Counts        map[string]int64 `json:"counts"`
	Handlers      int              `json:"handlers"`
	Conversations int              `json:"conversations"`
	UserID        string           `json:"user_id,omitempty"`
	TenantID      string           `json:"tenant_id,omitempty"`
}

// Monitor follows a Client: connection state, last event, per-type counts
// and an Inbox of recent messages.
type Monitor struct {
	c     *Client
	log   *slog.Logger
	inbox *Inbox
	now   func() time.Time

	mu          sync.Mutex
	scope       *Scope
	stopState   func()
	lastType    string
	lastAt      time.Time
	counts      map[string]int64
	established v1.ConnectionEstablished
}

// NewMonitor builds a stopped Monitor for c.
func NewMonitor(c *Client, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		c:      c,
		log:    log,
		inbox:  NewInbox(c.cfg.InboxSize),
		now:    time.Now,
		counts: make(map[string]int64),
	}
}

// Inbox returns the message cache fed by the monitor.
func (m *Monitor) Inbox() *Inbox { return m.inbox }

// Start registers the monitor's handlers and connects. Calling it on a
// started monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.scope != nil {
		m.mu.Unlock()
		return
	}
	scope := m.c.NewScope()
	m.scope = scope
	m.stopState = m.c.OnStateChange(m.onState)
	m.mu.Unlock()

	scope.On(AnyType, m.record)
	scope.On(v1.TypeConnectionEstablished, m.onEstablished)
	scope.On(v1.TypeNewMessage, m.onNewMessage)
	scope.On(v1.TypeConversationUpdated, m.onConversationUpdated)
	scope.On(v1.TypeMessageStatusUpdated, m.onStatus)
	scope.On(v1.TypeConversationAssigned, m.onAssigned)
	scope.On(v1.TypeMessagesRead, m.onRead)
	for _, typ := range []string{
		v1.TypeWhatsAppConnectionUpdate,
		v1.TypeProviderMessagesUpsert,
		v1.TypeProviderMessagesUpdate,
		v1.TypeProviderConnectionUpdate,
	} {
		scope.On(typ, m.onProvider)
	}

	m.c.Connect()
}

// Stop drops the monitor's handlers and disconnects the client.
func (m *Monitor) Stop() {
	m.mu.Lock()
	scope, stopState := m.scope, m.stopState
	m.scope, m.stopState = nil, nil
	m.mu.Unlock()

	if scope == nil {
		return
	}
	scope.Close()
	stopState()
	m.c.Disconnect()
}

// Snapshot returns the current view. The connection state is read from the
// client, never cached, so it cannot lag behind a Disconnect.
func (m *Monitor) Snapshot() Snapshot {
	st := m.c.State()

	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int64, len(m.counts))
	for k, v := range m.counts {
		counts[k] = v
	}
	return Snapshot{
		Connected:     st == StateConnected,
		State:         st.String(),
		LastEventType: m.lastType,
		LastEventAt:   m.lastAt,
		Counts:        counts,
		Handlers:      m.c.Handlers(),
		Conversations: len(m.inbox.Conversations()),
		UserID:        m.established.UserID,
		TenantID:      m.established.TenantID,
	}
}

// onState logs transitions. Notifications may arrive out of order, so the
// argument is ignored in favour of the client's current state.
func (m *Monitor) onState(State) {
	m.log.Debug("realtime.state", "state", m.c.State().String())
}

func (m *Monitor) record(ev v1.Event) error {
	m.mu.Lock()
	m.lastType = ev.Type()
	m.lastAt = m.now().UTC()
	m.counts[ev.Type()]++
	m.mu.Unlock()
	return nil
}

func (m *Monitor) onEstablished(ev v1.Event) error {
	e, ok := ev.(*v1.ConnectionEstablished)
	if !ok {
		return nil
	}
	m.mu.Lock()
	m.established = *e
	m.mu.Unlock()
	m.log.Info("realtime.established", "user_id", e.UserID, "tenant_id", e.TenantID)
	return nil
}

func (m *Monitor) onNewMessage(ev v1.Event) error {
	e, ok := ev.(*v1.NewMessage)
	if !ok {
		return nil
	}
	msg := e.Message
	if msg.ConversationID == "" {
		msg.ConversationID = e.ConversationID
	}
	if m.inbox.Add(msg, m.now().UTC()) {
		m.log.Debug("realtime.message", "conversation_id", msg.ConversationID, "message_id", msg.ID, "direction", string(msg.Direction))
	}
	return nil
}

func (m *Monitor) onConversationUpdated(ev v1.Event) error {
	e, ok := ev.(*v1.ConversationUpdated)
	if !ok {
		return nil
	}
	conv := e.Conversation
	if conv.ID == "" {
		conv.ID = e.ConversationID
	}
	m.inbox.SetConversation(conv, m.now().UTC())
	return nil
}

func (m *Monitor) onStatus(ev v1.Event) error {
	if e, ok := ev.(*v1.MessageStatusUpdated); ok {
		m.inbox.UpdateStatus(e.ConversationID, e.MessageID, e.Status)
	}
	return nil
}

func (m *Monitor) onAssigned(ev v1.Event) error {
	if e, ok := ev.(*v1.ConversationAssigned); ok {
		m.inbox.Assign(e.ConversationID, e.AssignedToID)
	}
	return nil
}

func (m *Monitor) onRead(ev v1.Event) error {
	if e, ok := ev.(*v1.MessagesRead); ok {
		m.inbox.MarkRead(e.ConversationID)
	}
	return nil
}

func (m *Monitor) onProvider(ev v1.Event) error {
	if e, ok := ev.(*v1.ProviderEvent); ok {
		m.log.Debug("realtime.provider", "type", e.Type(), "instance", e.Instance, "bytes", len(e.Data))
	}
	return nil
}
