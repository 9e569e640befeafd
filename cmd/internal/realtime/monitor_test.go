package realtime

import (
	"testing"
	"time"

	v1 "leadflow/shared/contracts/realtime/v1"
)

func TestMonitor_TracksStateEventsAndInbox(t *testing.T) {
	conn := newFakeConn()
	c, _ := newTestClient(t, testConfig(), staticTokens("tok"), &fakeDialer{conns: []*fakeConn{conn}}, &fakeScheduler{})
	log, _ := newTestLogger()
	m := NewMonitor(c, log)

	if snap := m.Snapshot(); snap.Connected || snap.State != "disconnected" {
		t.Fatalf("initial snapshot=%+v", snap)
	}

	m.Start()
	m.Start()
	waitFor(t, "monitor connected", func() bool { return m.Snapshot().Connected })

	frames := []string{
		`{"type":"connection_established","user_id":"u1","tenant_id":"t1"}`,
		`{"type":"new_message","conversation_id":"c1","message":{"id":"m1","direction":"inbound","content":"oi","status":"delivered"}}`,
		`{"type":"new_message","conversation_id":"c1","message":{"id":"m1","direction":"inbound","content":"oi"}}`,
		`{"type":"message_status_updated","conversation_id":"c1","message_id":"m1","status":"read"}`,
		`{"type":"conversation_assigned","conversation_id":"c1","assigned_to_id":"agent-2"}`,
		`{"type":"MESSAGES_UPSERT","instance":"wa-1","data":{"key":{"id":"x"}}}`,
		`{"type":"something_new"}`,
	}
	for _, f := range frames {
		conn.in <- []byte(f)
	}
	waitFor(t, "events recorded", func() bool { return m.Snapshot().LastEventType == "something_new" })

	snap := m.Snapshot()
	if snap.UserID != "u1" || snap.TenantID != "t1" {
		t.Fatalf("identity=%q/%q", snap.UserID, snap.TenantID)
	}
	if snap.Counts[v1.TypeNewMessage] != 2 || snap.Counts[v1.TypeProviderMessagesUpsert] != 1 {
		t.Fatalf("counts=%v", snap.Counts)
	}
	if snap.LastEventAt.IsZero() {
		t.Fatalf("last event time not set")
	}

	msgs := m.Inbox().Recent("c1", 0)
	if len(msgs) != 1 || msgs[0].Status != v1.MessageStatusRead {
		t.Fatalf("inbox=%+v", msgs)
	}
	if sum := m.Inbox().Conversations(); len(sum) != 1 || sum[0].AssignedToID != "agent-2" {
		t.Fatalf("summary=%+v", sum)
	}

	handlers := c.Handlers()
	m.Stop()
	m.Stop()
	if c.Handlers() != 0 || handlers == 0 {
		t.Fatalf("handlers before=%d after=%d", handlers, c.Handlers())
	}
	if snap := m.Snapshot(); snap.Connected {
		t.Fatalf("after stop snapshot=%+v", snap)
	}
	waitFor(t, "close settled", func() bool { return m.Snapshot().State == "disconnected" })
}

func TestMonitor_StateFollowsClientWhenNotificationsLag(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	log, _ := newTestLogger()
	c, err := New(testConfig(), staticTokens("tok"), log,
		WithDialer(&fakeDialer{conns: []*fakeConn{newFakeConn()}}),
		withAfterFunc((&fakeScheduler{}).after),
		WithStateObserver(func(s State) {
			if s == StateConnected {
				entered <- struct{}{}
				<-release
			}
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)

	m := NewMonitor(c, log)
	m.Start()
	<-entered

	// The connected notification is still being delivered when the client
	// goes away.
	c.Disconnect()
	if snap := m.Snapshot(); snap.Connected {
		t.Fatalf("snapshot connected while client is %v", c.State())
	}
	close(release)

	waitFor(t, "disconnected", func() bool { return c.State() == StateDisconnected })
	time.Sleep(10 * time.Millisecond)
	if snap := m.Snapshot(); snap.Connected || snap.State != "disconnected" {
		t.Fatalf("stale snapshot=%+v", snap)
	}
}
