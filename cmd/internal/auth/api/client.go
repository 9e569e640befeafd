package authapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"leadflow/cmd/internal/crm"
	"leadflow/cmd/internal/httpapi"

	"golang.org/x/sync/errgroup"
)

// ErrIncompleteTokens is returned when an auth answer lacks a token.
var ErrIncompleteTokens = errors.New("auth response missing tokens")

// Client calls the auth endpoints.
type Client struct {
	d   crm.Doer
	res *crm.Client
}

// New returns an auth client on top of the request pipeline.
func New(d crm.Doer) *Client {
	return &Client{d: d, res: crm.New(d)}
}

// Login exchanges credentials for tokens, user and tenant.
func (c *Client) Login(ctx context.Context, in LoginRequest) (AuthResponse, error) {
	in.Email = strings.TrimSpace(in.Email)
	return c.authenticate(ctx, "/auth/login", in)
}

// Register creates a tenant plus owner and signs the owner in.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (AuthResponse, error) {
	in.Email = strings.TrimSpace(in.Email)
	return c.authenticate(ctx, "/auth/register", in)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (AuthResponse, error) {
	var out AuthResponse
	err := c.d.Do(ctx, httpapi.Request{Method: http.MethodPost, Path: path, Body: body, Anonymous: true}, &out)
	if err != nil {
		return AuthResponse{}, err
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		return AuthResponse{}, ErrIncompleteTokens
	}
	return out, nil
}

// Refresh exchanges a refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var out TokenPair
	req := httpapi.Request{
		Method:    http.MethodPost,
		Path:      "/auth/refresh",
		Body:      refreshRequest{RefreshToken: refreshToken},
		Anonymous: true,
	}
	if err := c.d.Do(ctx, req, &out); err != nil {
		return TokenPair{}, err
	}
	if out.AccessToken == "" {
		return TokenPair{}, ErrIncompleteTokens
	}
	return out, nil
}

// CurrentUser fetches /users/me and /tenants/me concurrently.
// Either failure fails the whole lookup.
func (c *Client) CurrentUser(ctx context.Context) (crm.User, crm.Tenant, error) {
	var (
		user   crm.User
		tenant crm.Tenant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := c.res.Users.Me(gctx)
		user = u
		return err
	})
	g.Go(func() error {
		t, err := c.res.Tenants.Me(gctx)
		tenant = t
		return err
	})
	if err := g.Wait(); err != nil {
		return crm.User{}, crm.Tenant{}, err
	}
	return user, tenant, nil
}
