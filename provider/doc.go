// Package provider holds the signing and verification primitives used by
// padlock.
//
// # Architecture
//
// A provider binds exactly one algorithm to exactly one key. Three variants
// exist:
//
//   - AsymmetricSigner signs with a private key (RSA, RSA-PSS, ECDSA, Ed25519).
//   - AsymmetricVerifier checks signatures with the matching public key.
//   - Symmetric signs and verifies with one shared secret (HMAC or keyed BLAKE2b).
//
// Algorithm names follow JWA (HS256, RS256, PS256, ES256, EdDSA, ...) and are
// resolved through github.com/golang-jwt/jwt/v5. A few JCA-style aliases
// (HmacSHA256, SHA256withECDSA, ...) are accepted so keys provisioned for other
// stacks can be reused, as are the BLAKE2b-256 and BLAKE2b-512 MACs.
//
// # Concurrency
//
// Provider instances are stateful and NOT safe for concurrent use. Share them
// through padlock's shared-locked discipline, or hand a factory to the
// per-context discipline so that every concurrent caller gets its own instance.
// Factories are immutable and safe to share.
//
// # What this package must NOT do
//
//   - Generate, persist or transmit keys.
//   - Surface verification failures as errors: Verify only ever returns false.
package provider
