package provider

import "errors"

var (
	// ErrInvalidKey is returned when key material does not fit the algorithm.
	ErrInvalidKey = errors.New("invalid key for algorithm")
	// ErrUnsupportedAlgorithm is returned for unknown or disabled algorithm names.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)
