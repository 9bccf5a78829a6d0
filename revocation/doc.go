// Package revocation keeps a Redis-backed denylist of claim identifiers.
//
// A signed claim stays cryptographically valid until it expires. Revoking it
// records its identifier under "<prefix>:rv:<uuid>" with a TTL matching the
// remaining lifetime of the claim, so the denylist never outgrows the set of
// claims that could still be presented.
//
// # What this package must NOT do
//
//   - Import padlock (no upward imports).
//   - Store claim tokens, signatures or metadata payloads. Only identifiers.
package revocation
