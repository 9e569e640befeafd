// Package authapi is the client for the CRM's /auth endpoints and the
// current-principal lookups.
//
// Login, register and refresh run as anonymous calls through the request
// pipeline, so a rejected credential never triggers the refresh-on-401 path.
// CurrentUser is authenticated and goes through the normal pipeline.
package authapi
