// Package middleware exposes HTTP guards that admit a request only when it
// carries a valid Padlock claim as a bearer token.
//
// # Guards
//
//   - [Guard] checks the signature, the validity window and, when a
//     revocation checker is configured, the denylist.
//   - [RequireIntegrity] checks the signature only. No clock, no Redis.
//   - [RequireStrict] checks everything and fails closed when the
//     revocation backend cannot answer.
//
// Each guard reads the Authorization header, decodes and verifies the claim,
// and injects it into the request context where [ClaimFromContext] finds it.
//
// # What this package must NOT do
//
//   - Sign claims or touch key material.
//   - Make authorization decisions beyond admitting or rejecting the claim.
package middleware
