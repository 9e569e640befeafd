// Package password holds the client-side password rules and the Argon2id
// key derivation used to seal local secrets.
//
// It provides:
// - Registration policy checks (length, letter, digit, trivial patterns)
// - Argon2id key derivation with env-tunable cost
//
// The server remains authoritative for password storage; nothing here hashes
// passwords for persistence.
package password
