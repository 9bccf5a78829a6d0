package padlock

import (
	"bytes"
	"reflect"

	"github.com/MrEthical07/padlock/metadata"
)

// Claim is an immutable metadata value together with its signature. A claim
// returned by Decode has not been verified.
type Claim[M metadata.Metadata] struct {
	metadata  M
	signature []byte
}

// NewClaim pairs m with a copy of signature.
func NewClaim[M metadata.Metadata](m M, signature []byte) Claim[M] {
	return Claim[M]{metadata: m, signature: bytes.Clone(signature)}
}

// Metadata returns the claim metadata.
func (c Claim[M]) Metadata() M { return c.metadata }

// Signature returns a copy of the signature bytes.
func (c Claim[M]) Signature() []byte { return bytes.Clone(c.signature) }

// MetadataType returns the static type of the claim metadata.
func (c Claim[M]) MetadataType() reflect.Type { return reflect.TypeOf((*M)(nil)).Elem() }

// WithMetadata returns a claim carrying m and the same signature.
func (c Claim[M]) WithMetadata(m M) Claim[M] { return NewClaim(m, c.signature) }

// WithSignature returns a claim carrying the same metadata and sig.
func (c Claim[M]) WithSignature(sig []byte) Claim[M] { return NewClaim(c.metadata, sig) }

// Equal reports whether both claims carry equal metadata and identical
// signature bytes.
func (c Claim[M]) Equal(other Claim[M]) bool {
	return bytes.Equal(c.signature, other.signature) && reflect.DeepEqual(c.metadata, other.metadata)
}
