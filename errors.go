package padlock

import (
	"errors"

	"github.com/MrEthical07/padlock/metadata"
	"github.com/MrEthical07/padlock/provider"
)

var (
	// ErrMalformedClaim is returned by Decode when the token has no delimiter
	// or a segment is not valid base64url.
	ErrMalformedClaim = errors.New("malformed claim")
	// ErrNoProvider is returned by Sign or Verify when the corresponding role
	// has no provider configured.
	ErrNoProvider = errors.New("no provider configured")
	// ErrValidityExceeded is returned by Sign when the metadata validity is
	// longer than the configured maximum.
	ErrValidityExceeded = errors.New("validity exceeds configured maximum")
	// ErrInvalidConfiguration is returned by Builder.Build.
	ErrInvalidConfiguration = errors.New("invalid padlock configuration")
	// ErrSigningFailed wraps an error returned by the signing primitive.
	ErrSigningFailed = errors.New("signing failed")
	// ErrClaimRejected is returned by Authenticate when the signature does not verify.
	ErrClaimRejected = errors.New("claim signature rejected")
	// ErrClaimNotValid is returned by Authenticate when the claim is outside its
	// validity window.
	ErrClaimNotValid = errors.New("claim not valid at this time")
	// ErrClosed is returned when a per-context provider is requested after Close.
	ErrClosed = errors.New("padlock closed")

	// ErrCodec aliases metadata.ErrCodec.
	ErrCodec = metadata.ErrCodec
	// ErrInvalidKey aliases provider.ErrInvalidKey.
	ErrInvalidKey = provider.ErrInvalidKey
	// ErrUnsupportedAlgorithm aliases provider.ErrUnsupportedAlgorithm.
	ErrUnsupportedAlgorithm = provider.ErrUnsupportedAlgorithm
)
