package pkcs11

import "errors"

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("pkcs11: invalid configuration")
	// ErrUnavailable is returned when the binary was built without cgo.
	ErrUnavailable = errors.New("pkcs11: support not compiled in")
	// ErrKeyNotFound is returned when no private key carries the label.
	ErrKeyNotFound = errors.New("pkcs11: key not found")
	// ErrClosed is returned after Module.Close or Signer.Close.
	ErrClosed = errors.New("pkcs11: closed")
)
