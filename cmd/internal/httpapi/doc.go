// Package httpapi is the request pipeline every REST call goes through.
//
// It attaches the session's bearer token, stamps a request id, decodes JSON,
// and turns non-2xx answers into *Error. A 401 on an authenticated call
// triggers exactly one refresh-then-replay; when that is not enough the
// session is logged out and the unauthorized hook fires.
//
// The pipeline does not know how sessions are stored. It talks to a Session,
// which the session manager implements.
package httpapi
