package metadata

import "errors"

var (
	// ErrCodec is returned when metadata cannot be serialized or deserialized.
	ErrCodec = errors.New("metadata codec failure")
	// ErrInvalidMetadata is returned when decoded metadata is structurally incomplete.
	ErrInvalidMetadata = errors.New("invalid claim metadata")
)
