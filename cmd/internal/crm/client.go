package crm

import (
	"context"
	"net/http"
	"net/url"

	"leadflow/cmd/internal/httpapi"
)

// Doer runs one request through the REST pipeline.
type Doer interface {
	Do(ctx context.Context, req httpapi.Request, out any) error
}

// Client groups the typed resource wrappers.
type Client struct {
	Conversations *Conversations
	Leads         *Leads
	Users         *Users
	Tenants       *Tenants
	Pipelines     *Pipelines
	Deals         *Deals
	Appointments  *Appointments
	AIAgent       *AIAgent
	Integrations  *Integrations
}

// New returns resource wrappers bound to d.
func New(d Doer) *Client {
	return &Client{
		Conversations: &Conversations{d: d},
		Leads:         &Leads{d: d},
		Users:         &Users{d: d},
		Tenants:       &Tenants{d: d},
		Pipelines:     &Pipelines{d: d},
		Deals:         &Deals{d: d},
		Appointments:  &Appointments{d: d},
		AIAgent:       &AIAgent{d: d},
		Integrations:  &Integrations{d: d},
	}
}

func get(ctx context.Context, d Doer, path string, q url.Values, out any) error {
	return d.Do(ctx, httpapi.Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

func post(ctx context.Context, d Doer, path string, body, out any) error {
	return d.Do(ctx, httpapi.Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func put(ctx context.Context, d Doer, path string, body, out any) error {
	return d.Do(ctx, httpapi.Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func patch(ctx context.Context, d Doer, path string, body, out any) error {
	return d.Do(ctx, httpapi.Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func del(ctx context.Context, d Doer, path string) error {
	return d.Do(ctx, deleteRequest(path), nil)
}

func deleteRequest(path string) httpapi.Request {
	return httpapi.Request{Method: http.MethodDelete, Path: path}
}

func seg(id string) string { return url.PathEscape(id) }
