//go:build !cgo

package pkcs11

import (
	"github.com/MrEthical07/padlock/provider"
	"go.uber.org/zap"
)

// Module is unavailable without cgo.
type Module struct{}

// Open validates cfg and reports ErrUnavailable.
func Open(cfg Config, _ *zap.Logger) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}

// NewSigner implements provider.SignerFactory.
func (m *Module) NewSigner() (provider.Signer, error) {
	return nil, ErrUnavailable
}

// Close is a no-op.
func (m *Module) Close() error {
	return nil
}
