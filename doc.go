// Package padlock issues and verifies compact signed claims.
//
// A claim is a metadata value (identifier, issuance, optional expiration, plus
// any fields a caller embeds) bound to a signature. On the wire it is
//
//	base64url(metadata bytes) "." base64url(signature bytes)
//
// using the padded URL-safe alphabet. Decoding accepts only that exact form:
// unpadded segments, line breaks and non-zero trailing bits are rejected.
//
// # Architecture boundaries
//
// padlock is the public surface. It exposes [Padlock], [Builder], [Claim],
// [Config] and the metrics and audit value types. Key handling lives in the
// provider package and metadata serialization in the metadata package; both are
// usable without this one.
//
// Each role (signing, verification) is configured independently with one of
// two disciplines:
//
//   - shared-locked: one provider instance guarded by a FIFO lock held only for
//     the cryptographic call.
//   - per-context: a factory builds providers on demand; each concurrent caller
//     borrows an instance nobody else is using and returns it afterwards.
//
// # What this package must NOT do
//
//   - Check temporal validity inside Verify. Integrity and validity are separate
//     questions; [Padlock.Authenticate] combines them.
//   - Reuse decoded metadata bytes for verification. Metadata is always
//     re-encoded so that only the canonical form is trusted.
//   - Log key material or signatures.
//
// # Performance contract
//
// The provider lock, or the idle-list mutex of a per-context role, is never
// held across codec work. Metrics are lock-free and audit delivery happens on a
// separate goroutine.
package padlock
