// Package seal encrypts small secrets at rest.
//
// A Sealer derives an XChaCha20-Poly1305 key from a passphrase with Argon2id
// (see security/password) and produces self-describing strings:
//
//	v1.<base64url(salt | nonce | ciphertext)>
//
// Each value is bound to a label (the storage key it lives under), so a sealed
// access token cannot be replayed as a refresh token.
package seal
