package pkcs11

import (
	"crypto"
	"errors"
	"fmt"

	"github.com/MrEthical07/padlock/provider"
	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
)

// EnvPrefix prefixes every variable read by ConfigFromEnv.
const EnvPrefix = "PADLOCK_PKCS11_"

// Config locates the token and the signing key.
type Config struct {
	Module    string `env:"MODULE"`
	PIN       string `env:"PIN"`
	KeyLabel  string `env:"KEY_LABEL"`
	Slot      int    `env:"SLOT"`
	Algorithm string `env:"ALGORITHM"`
}

// DefaultConfig selects the first slot with a token and ES256.
func DefaultConfig() Config {
	return Config{
		Slot:      -1,
		Algorithm: "ES256",
	}
}

// ConfigFromEnv overlays PADLOCK_PKCS11_* variables on DefaultConfig and
// validates the result.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the library path, key label and algorithm are usable.
func (c Config) Validate() error {
	if c.Module == "" {
		return fmt.Errorf("%w: module path is required", ErrInvalidConfig)
	}
	if c.KeyLabel == "" {
		return fmt.Errorf("%w: key label is required", ErrInvalidConfig)
	}
	if c.Slot < -1 {
		return fmt.Errorf("%w: slot %d", ErrInvalidConfig, c.Slot)
	}
	if _, err := digestFor(c.Algorithm); err != nil {
		return err
	}
	return nil
}

// digestFor returns the hash the token signs for alg.
func digestFor(alg string) (crypto.Hash, error) {
	method, err := provider.Lookup(alg)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	ecdsa, ok := method.(*jwt.SigningMethodECDSA)
	if !ok {
		return 0, fmt.Errorf("%w: algorithm %s is not ECDSA", ErrInvalidConfig, alg)
	}
	return ecdsa.Hash, nil
}
