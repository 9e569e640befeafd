// Package session owns the client-side session: the access/refresh token pair
// and the current user and tenant.
//
// A Manager is hydrated from a TokenStore when opened, answers synchronous
// authentication queries, and performs token refresh. Concurrent refreshes
// collapse into one exchange. A refresh result is dropped if the session was
// replaced or ended while the exchange was in flight.
//
// Persisted state is exactly two values, access_token and refresh_token.
// Stores are last-writer-wins; there is no cross-process locking.
package session
