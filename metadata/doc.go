// Package metadata defines the identity/validity payload bound by a claim's
// signature and the codecs that turn it into signable bytes.
//
// # Wire form
//
// [JSONCodec] is the default codec. [ClaimMetadata] encodes as
//
//	{"identifier":"<uuid>","issuance":1.000000000,"expiration":2.000000000}
//
// where instants are epoch seconds with a nine digit nanosecond fraction and a
// missing expiration is written as null. Output is deterministic for a given
// value, which is what makes signatures over it reproducible.
//
// [CBORCodec] produces core deterministic CBOR for deployments that prefer a
// binary payload. Both codecs reject malformed input with [ErrCodec] and never
// return a partially populated value.
//
// # What this package must NOT do
//
//   - Sign, verify or otherwise touch key material.
//   - Mutate metadata once it has been handed to a codec.
package metadata
