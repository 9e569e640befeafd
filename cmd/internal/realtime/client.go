package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"leadflow/cmd/security/token"
	v1 "leadflow/shared/contracts/realtime/v1"

	"github.com/coder/websocket"
	"golang.org/x/oauth2"
)

// State is the connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateClosing covers a Disconnect whose close handshake is in flight.
	// The socket is already detached; Connect may start a new one.
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithStateObserver registers fn for every state change.
func WithStateObserver(fn func(State)) Option {
	return func(c *Client) { c.observers[c.nextObs] = fn; c.nextObs++ }
}

func withAfterFunc(f afterFunc) Option {
	return func(c *Client) { c.after = f }
}

// Client is the realtime channel client. It is safe for concurrent use.
//
// Inbound events are dispatched on the read goroutine, one at a time and in
// delivery order. Handlers must not block for long.
type Client struct {
	cfg     Config
	tokens  oauth2.TokenSource
	log     *slog.Logger
	dialer  Dialer
	metrics *Metrics
	after   afterFunc
	typing  *keyedLimiter
	reg     *registry

	mu         sync.Mutex
	state      State
	conn       Conn
	gen        uint64 // bumped by every dial and by Disconnect
	schedule   *reconnectSchedule
	retry      timer
	dialCancel context.CancelFunc
	hbStop     chan struct{}

	omu       sync.Mutex
	observers map[int]func(State)
	nextObs   int
}

// New builds a disconnected Client. tokens supplies the access token on
// every Connect; session.Manager satisfies it.
func New(cfg Config, tokens oauth2.TokenSource, log *slog.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		cfg:       cfg,
		tokens:    tokens,
		log:       log,
		after:     realAfterFunc,
		typing:    newKeyedLimiter(cfg.TypingLimit, cfg.TypingWindow),
		schedule:  newReconnectSchedule(cfg.BaseDelay, cfg.MaxAttempts),
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = WebSocketDialer{
			HTTPClient: &http.Client{Timeout: cfg.DialTimeout},
			ReadLimit:  cfg.ReadLimit,
		}
	}
	c.reg = newRegistry(log, c.metrics)
	c.metrics.setState(StateDisconnected)
	return c, nil
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the socket is open.
func (c *Client) Connected() bool { return c.State() == StateConnected }

// OnStateChange registers fn for every state change. The returned func
// deregisters it.
func (c *Client) OnStateChange(fn func(State)) (cancel func()) {
	c.omu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.omu.Unlock()

	return func() {
		c.omu.Lock()
		delete(c.observers, id)
		c.omu.Unlock()
	}
}

// Connect opens the socket in the background.
//
// It is a no-op while connecting or connected. Without an access token it
// logs and returns. It also re-arms reconnects after the attempt ceiling was
// reached or Disconnect was called.
func (c *Client) Connect() {
	c.connect(true)
}

func (c *Client) connect(external bool) {
	c.mu.Lock()
	if c.state != StateDisconnected && c.state != StateClosing {
		st := c.state
		c.mu.Unlock()
		c.log.Debug("realtime.connect.skip", "state", st.String())
		return
	}

	tok, err := c.tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		c.mu.Unlock()
		c.log.Error("realtime.connect.no_token", "err", err)
		return
	}

	u, err := Endpoint(c.cfg.APIBaseURL, tok.AccessToken)
	if err != nil {
		c.mu.Unlock()
		c.log.Error("realtime.connect.endpoint", "err", err)
		return
	}

	if external {
		c.stopRetryLocked()
		c.schedule.reset()
	}

	c.gen++
	gen := c.gen
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
	c.dialCancel = cancel
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()
	c.notify(StateConnecting)

	redacted, _ := token.RedactURL(u)
	c.log.Info("realtime.connect.start", "url", redacted, "token_fp", token.Fingerprint(tok.AccessToken), "gen", gen)

	go c.run(ctx, cancel, gen, u)
}

func (c *Client) run(ctx context.Context, cancel context.CancelFunc, gen uint64, u string) {
	conn, err := c.dialer.Dial(ctx, u)
	cancel()
	c.metrics.dial(err == nil)
	if err != nil {
		c.log.Warn("realtime.connect.fail", "gen", gen, "err", err)
		c.drop(gen)
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		// Disconnect won the race with the dial.
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")
		return
	}
	c.conn = conn
	c.dialCancel = nil
	c.schedule.reset()
	stop := make(chan struct{})
	c.hbStop = stop
	c.setStateLocked(StateConnected)
	c.mu.Unlock()
	c.notify(StateConnected)

	c.log.Info("realtime.connect.open", "gen", gen)
	go c.heartbeat(stop)

	c.readLoop(conn, gen)
}

func (c *Client) readLoop(conn Conn, gen uint64) {
	ctx := context.Background()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			kind := classifyReadErr(err)
			c.log.Info("realtime.read.end", "gen", gen, "kind", kind.String(),
				"close_status", int(websocket.CloseStatus(err)), "err", err)
			c.drop(gen)
			return
		}

		ev, err := v1.Decode(data)
		if err != nil {
			c.metrics.malformedFrame()
			c.log.Warn("realtime.frame.malformed", "gen", gen, "bytes", len(data), "err", err)
			continue
		}
		c.metrics.event(ev.Type())
		c.reg.dispatch(ev)
	}
}

// drop handles the end of a connection attempt or an open connection.
// A stale generation means Disconnect already handled it.
func (c *Client) drop(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.stopHeartbeatLocked()
	c.conn = nil
	c.dialCancel = nil
	c.setStateLocked(StateDisconnected)

	attempt, delay, ok := c.schedule.next()
	if ok {
		c.retry = c.after(delay, func() { c.reconnect(gen) })
	}
	c.mu.Unlock()
	c.notify(StateDisconnected)

	if !ok {
		c.log.Warn("realtime.reconnect.give_up", "attempts", attempt)
		return
	}
	c.metrics.reconnectScheduled()
	c.log.Info("realtime.reconnect.scheduled", "attempt", attempt, "delay_ms", delay.Milliseconds())
}

func (c *Client) reconnect(gen uint64) {
	c.mu.Lock()
	stale := c.gen != gen
	if !stale {
		c.retry = nil
	}
	c.mu.Unlock()
	if stale {
		return
	}
	c.connect(false)
}

func (c *Client) heartbeat(stop <-chan struct{}) {
	t := time.NewTicker(c.cfg.HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			c.Send(v1.Ping())
		}
	}
}

// Disconnect closes the socket without waiting for the close handshake and
// suppresses every pending or future automatic reconnect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.gen++
	c.stopRetryLocked()
	c.stopHeartbeatLocked()
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	conn := c.conn
	c.conn = nil
	c.schedule.exhaust()
	prev := c.state
	next := StateDisconnected
	if conn != nil {
		next = StateClosing
	}
	c.setStateLocked(next)
	gen := c.gen
	c.mu.Unlock()

	if prev != next {
		c.notify(next)
	}
	if conn != nil {
		go c.finishClose(conn, gen)
	}
	if prev != StateDisconnected {
		c.log.Info("realtime.disconnect", "from", prev.String())
	}
}

// finishClose runs the close handshake, then settles the state unless a
// newer Connect or Disconnect already moved it.
func (c *Client) finishClose(conn Conn, gen uint64) {
	_ = conn.Close(websocket.StatusNormalClosure, "client disconnect")

	c.mu.Lock()
	if c.gen != gen || c.state != StateClosing {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
	c.notify(StateDisconnected)
}

// Close disconnects and drops every registered handler.
func (c *Client) Close() {
	c.Disconnect()
	c.reg.clear()
}

// Send writes msg as JSON when connected. Otherwise the message is dropped
// and a warning logged; nothing is queued.
func (c *Client) Send(msg any) {
	c.mu.Lock()
	conn := c.conn
	if c.state != StateConnected || conn == nil {
		st := c.state
		c.mu.Unlock()
		c.metrics.droppedSend("not_connected")
		c.log.Warn("realtime.send.dropped", "state", st.String())
		return
	}
	c.mu.Unlock()

	b, err := json.Marshal(msg)
	if err != nil {
		c.metrics.droppedSend("encode")
		c.log.Warn("realtime.send.encode", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.WriteTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		c.metrics.droppedSend("write")
		c.log.Warn("realtime.send.fail", "err", err)
	}
}

// SubscribeConversation asks for the conversation's event stream.
func (c *Client) SubscribeConversation(conversationID string) {
	c.Send(v1.SubscribeConversation(conversationID))
}

// UnsubscribeConversation stops the conversation's event stream.
func (c *Client) UnsubscribeConversation(conversationID string) {
	c.Send(v1.UnsubscribeConversation(conversationID))
}

// MarkAsRead clears the conversation's unread state.
func (c *Client) MarkAsRead(conversationID string) {
	c.Send(v1.MarkAsRead(conversationID))
}

// SendTyping signals that the user is composing a reply. Frames over the
// configured typing limit are skipped.
func (c *Client) SendTyping(conversationID string) {
	if !c.typing.Allow(conversationID, time.Now()) {
		c.metrics.droppedSend("throttled")
		c.log.Debug("realtime.typing.throttled", "conversation_id", conversationID)
		return
	}
	c.Send(v1.Typing(conversationID))
}

// On registers h for events of type typ (or AnyType).
func (c *Client) On(typ string, h Handler) *Subscription {
	return c.reg.add(typ, h)
}

// NewScope returns a Scope whose subscriptions end together.
func (c *Client) NewScope() *Scope {
	return &Scope{c: c}
}

// Handlers returns the number of registered handlers.
func (c *Client) Handlers() int { return c.reg.count() }

func (c *Client) setStateLocked(s State) {
	c.state = s
	c.metrics.setState(s)
}

func (c *Client) stopRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Client) stopHeartbeatLocked() {
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}

func (c *Client) notify(s State) {
	c.omu.Lock()
	fns := make([]func(State), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.omu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
