// Command realtime-smoke is a smoke test for the CRM realtime channel.
//
// It validates:
//   - the handshake with a bearer token in the query string
//   - the connection_established greeting
//   - ping -> pong
//   - subscribe/unsubscribe acknowledgements for one conversation (optional)
//
// A token comes from -token, LEADFLOW_ACCESS_TOKEN, or a password sign-in
// with -email and LEADFLOW_PASSWORD.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	authapi "leadflow/cmd/internal/auth/api"
	"leadflow/cmd/internal/httpapi"
	"leadflow/cmd/internal/realtime"
	v1 "leadflow/shared/contracts/realtime/v1"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const maxReadBytes = 1 << 20 // 1MiB

type smokeClient struct {
	conn    *websocket.Conn
	events  chan v1.Event
	errCh   chan error
	verbose bool
}

func main() {
	var (
		apiURL  = flag.String("api", envOr("LEADFLOW_API_URL", "http://localhost:8000/api/v1"), "REST base URL")
		token   = flag.String("token", os.Getenv("LEADFLOW_ACCESS_TOKEN"), "Access token")
		email   = flag.String("email", os.Getenv("LEADFLOW_EMAIL"), "Sign in with this email when no token is given")
		convID  = flag.String("conv", "", "Conversation ID to subscribe to (optional)")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	root := context.Background()

	tok := strings.TrimSpace(*token)
	if tok == "" {
		tok = mustSignIn(root, *apiURL, *email, *timeout)
	}

	u, err := realtime.Endpoint(*apiURL, tok)
	if err != nil {
		fatalf("invalid -api: %v", err)
	}

	c := mustConnect(root, u, *timeout, *verbose)
	defer func() { _ = c.conn.Close(websocket.StatusNormalClosure, "smoke done") }()

	hello := mustReadUntil[*v1.ConnectionEstablished](root, c, v1.TypeConnectionEstablished, *timeout)
	if *verbose {
		fmt.Printf("established: user=%s tenant=%s\n", hello.UserID, hello.TenantID)
	}

	mustWrite(root, c, v1.Ping(), *timeout)
	mustReadUntil[*v1.Pong](root, c, v1.TypePong, *timeout)

	if *convID != "" {
		mustWrite(root, c, v1.SubscribeConversation(*convID), *timeout)
		sub := mustReadUntil[*v1.Subscribed](root, c, v1.TypeSubscribed, *timeout)
		if sub.ConversationID != *convID {
			fatalf("subscribed conversation_id mismatch: got=%q want=%q", sub.ConversationID, *convID)
		}

		mustWrite(root, c, v1.UnsubscribeConversation(*convID), *timeout)
		unsub := mustReadUntil[*v1.Unsubscribed](root, c, v1.TypeUnsubscribed, *timeout)
		if unsub.ConversationID != *convID {
			fatalf("unsubscribed conversation_id mismatch: got=%q want=%q", unsub.ConversationID, *convID)
		}
	}

	fmt.Println("OK: realtime smoke passed")
}

func mustSignIn(parent context.Context, apiURL, email string, stepTimeout time.Duration) string {
	pw := os.Getenv("LEADFLOW_PASSWORD")
	if email == "" || pw == "" {
		fatalf("no token: pass -token, or -email with LEADFLOW_PASSWORD")
	}

	cfg := httpapi.DefaultConfig()
	cfg.BaseURL = apiURL
	cfg.Timeout = stepTimeout
	api, err := httpapi.NewClient(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		fatalf("api client: %v", err)
	}

	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	resp, err := authapi.New(api).Login(ctx, authapi.LoginRequest{Email: email, Password: pw})
	if err != nil {
		fatalf("sign in: %s", httpapi.Detail(err, err.Error()))
	}
	return resp.AccessToken
}

func mustConnect(parent context.Context, u string, stepTimeout time.Duration, verbose bool) *smokeClient {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, u, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		fatalf("dial: status=%d err=%v", status, err)
	}
	conn.SetReadLimit(maxReadBytes)

	c := &smokeClient{
		conn:    conn,
		events:  make(chan v1.Event, 64),
		errCh:   make(chan error, 1),
		verbose: verbose,
	}
	c.startReadLoop()
	return c
}

func (c *smokeClient) startReadLoop() {
	go func() {
		defer close(c.events)
		for {
			_, data, err := c.conn.Read(context.Background())
			if err != nil {
				c.fail(err)
				return
			}
			ev, err := v1.Decode(data)
			if err != nil {
				c.fail(err)
				return
			}
			if c.verbose {
				fmt.Printf("<- %s\n", ev.Type())
			}
			select {
			case c.events <- ev:
			default:
				c.fail(errors.New("event buffer overflow: consumer too slow"))
				return
			}
		}
	}()
}

func (c *smokeClient) fail(err error) {
	select {
	case c.errCh <- err:
	default:
	}
}

// mustReadUntil skips frames until one tagged want arrives and returns it as T.
func mustReadUntil[T v1.Event](parent context.Context, c *smokeClient, want string, stepTimeout time.Duration) T {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			fatalf("timeout waiting for %q", want)
		case err := <-c.errCh:
			fatalf("read failed while waiting for %q: %v", want, err)
		case ev, ok := <-c.events:
			if !ok {
				fatalf("connection closed while waiting for %q", want)
			}
			if ev.Type() != want {
				continue
			}
			typed, ok := ev.(T)
			if !ok {
				fatalf("frame %q decoded to %T", want, ev)
			}
			return typed
		}
	}
}

func mustWrite(parent context.Context, c *smokeClient, msg v1.Outbound, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		fatalf("write %s: %v", msg.Type, err)
	}
	if c.verbose {
		fmt.Printf("-> %s\n", msg.Type)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
