// Package token keeps bearer tokens out of logs.
//
// Tokens are never logged verbatim. Log lines carry a short SHA-256
// fingerprint instead, which is stable for a given token and lets operators
// correlate a refresh with the connection that used it. URLs that carry a
// token in their query string are redacted before they are logged.
package token
