package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"leadflow/cmd/internal/ids"

	"golang.org/x/oauth2"
)

// Session is what the pipeline needs from the session manager.
type Session interface {
	// Token returns the current access token. An error means none is held.
	Token() (*oauth2.Token, error)

	// RefreshAccessToken exchanges the refresh token and reports success.
	RefreshAccessToken(ctx context.Context) bool

	// Logout ends the session.
	Logout(ctx context.Context)
}

// Request describes one REST call relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Anonymous calls carry no bearer token and never trigger a refresh.
	// Login, register and refresh use it.
	Anonymous bool
}

// attempt is one try of a Request. The retry marker lives here, next to the
// request, and never on it.
type attempt struct {
	req  Request
	body []byte

	// bearer is the access token the try was sent with.
	bearer  string
	retried bool
}

func (a attempt) replay() attempt {
	a.retried = true
	return a
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithUnauthorizedHandler sets the hook called after a forced logout.
// It is the headless equivalent of sending the user back to the login page.
func WithUnauthorizedHandler(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// Client is the REST request pipeline.
type Client struct {
	cfg  Config
	log  *slog.Logger
	base *url.URL
	http *http.Client

	metrics        *Metrics
	onUnauthorized func(ctx context.Context)

	mu   sync.RWMutex
	sess Session
}

// NewClient validates cfg and builds a pipeline. Bind a Session before
// issuing authenticated calls.
func NewClient(cfg Config, log *slog.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	c := &Client{
		cfg:  cfg,
		log:  log,
		base: base,
		http: &http.Client{Timeout: nonZeroDuration(cfg.Timeout, defaultTimeout)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Bind attaches the session whose tokens authenticate calls.
func (c *Client) Bind(s Session) {
	c.mu.Lock()
	c.sess = s
	c.mu.Unlock()
}

// BaseURL returns the configured REST root.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess
}

// bearer returns the session's current access token, or "".
func (c *Client) bearer() string {
	sess := c.session()
	if sess == nil {
		return ""
	}
	tok, err := sess.Token()
	if err != nil || tok == nil {
		return ""
	}
	return tok.AccessToken
}

// Get issues a GET and decodes the answer into out (which may be nil).
func (c *Client) Get(ctx context.Context, path string, q url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

// Post issues a POST with a JSON body (which may be nil).
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// Do runs req through the pipeline and decodes a 2xx JSON answer into out.
//
// A 401 on an authenticated call refreshes the session once and replays the
// call. When the session already holds a different token than the one the
// call was sent with, another call has refreshed meanwhile and the replay
// uses that token without a new exchange. If the refresh fails or the replay
// is also rejected, the session is logged out, the unauthorized hook runs,
// and the 401 *Error is returned.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	a := attempt{req: req}
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
		a.body = b
	}

	for {
		if !req.Anonymous {
			a.bearer = c.bearer()
		}
		err := c.send(ctx, a, out)
		if err == nil || req.Anonymous || !errors.Is(err, ErrUnauthorized) {
			return err
		}

		sess := c.session()
		if sess == nil {
			return err
		}
		if a.retried {
			c.forceLogout(ctx, sess, req, "rejected_after_refresh")
			return err
		}

		if cur := c.bearer(); cur != "" && cur != a.bearer {
			c.log.Debug("http.auth.replay", "method", req.Method, "path", req.Path, "refreshed", false)
			a = a.replay()
			continue
		}

		ok := sess.RefreshAccessToken(ctx)
		c.metrics.refresh(ok)
		if !ok {
			c.forceLogout(ctx, sess, req, "refresh_failed")
			return err
		}
		c.log.Debug("http.auth.replay", "method", req.Method, "path", req.Path, "refreshed", true)
		a = a.replay()
	}
}

func (c *Client) forceLogout(ctx context.Context, sess Session, req Request, reason string) {
	c.log.Warn("http.auth.forced_logout", "method", req.Method, "path", req.Path, "reason", reason)
	c.metrics.forcedLogout()
	sess.Logout(ctx)
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func (c *Client) send(ctx context.Context, a attempt, out any) error {
	req := a.req
	start := time.Now()

	u := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if a.body != nil {
		body = bytes.NewReader(a.body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return err
	}

	hreq.Header.Set("Accept", "application/json")
	if a.body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		hreq.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	reqID, err := ids.NewULID(start)
	if err == nil {
		hreq.Header.Set("X-Request-ID", reqID)
	}
	if !req.Anonymous && a.bearer != "" {
		(&oauth2.Token{AccessToken: a.bearer}).SetAuthHeader(hreq)
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		c.metrics.observe(req.Method, 0, time.Since(start))
		c.log.Debug("http.call.fail", "method", req.Method, "path", req.Path, "request_id", reqID, "err", err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	took := time.Since(start)
	c.metrics.observe(req.Method, resp.StatusCode, took)
	c.log.Debug("http.call",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", took.Milliseconds(),
		"request_id", reqID,
		"retried", a.retried,
	)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Detail: parseDetail(data),
			Body:   data,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
