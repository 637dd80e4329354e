// Package crypto provides the cryptographic primitives of slotvault.
//
// Every sealed blob has the layout
//
//	magic "SVLT" | version | kdf id | kdf cost (uint32 BE) | salt (16) | nonce (12) | ciphertext+tag
//
// Encryption is AES-256-GCM with the header bytes as associated data, so
// tampering with the KDF parameters is detected like tampering with the
// ciphertext.
//
// Key derivation is PBKDF2-HMAC-SHA256 (210,000 iterations by default) or
// Argon2id (64 MiB, 4 lanes). The password is never padded or truncated.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Cipher.Destroy() when done with a password
package crypto
