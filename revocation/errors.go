package revocation

import "errors"

var (
	// ErrRedisUnavailable wraps transport errors from the Redis client.
	ErrRedisUnavailable = errors.New("revocation: redis unavailable")
	// ErrInvalidIdentifier is returned for the nil UUID.
	ErrInvalidIdentifier = errors.New("revocation: invalid claim identifier")
)
