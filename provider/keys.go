package provider

import (
	"crypto"
	"crypto/ed25519"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ParsePrivateKeyPEM decodes a PEM private key. EC (SEC 1 or PKCS#8), RSA
// (PKCS#1 or PKCS#8) and Ed25519 (PKCS#8) keys are recognized. A raw 64-byte
// Ed25519 private key is also accepted.
func ParsePrivateKeyPEM(data []byte) (crypto.PrivateKey, error) {
	if len(data) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(append([]byte(nil), data...)), nil
	}
	if k, err := jwt.ParseECPrivateKeyFromPEM(data); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseRSAPrivateKeyFromPEM(data); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseEdPrivateKeyFromPEM(data); err == nil {
		if edKey, ok := k.(ed25519.PrivateKey); ok {
			return edKey, nil
		}
	}
	return nil, errors.Join(ErrInvalidKey, errors.New("unrecognized private key encoding"))
}

// ParsePublicKeyPEM decodes a PEM public key or certificate. A raw 32-byte
// Ed25519 public key is also accepted.
func ParsePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	if len(data) == ed25519.PublicKeySize {
		return ed25519.PublicKey(append([]byte(nil), data...)), nil
	}
	if k, err := jwt.ParseECPublicKeyFromPEM(data); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseRSAPublicKeyFromPEM(data); err == nil {
		return k, nil
	}
	if k, err := jwt.ParseEdPublicKeyFromPEM(data); err == nil {
		if edKey, ok := k.(ed25519.PublicKey); ok {
			return edKey, nil
		}
	}
	return nil, errors.Join(ErrInvalidKey, errors.New("unrecognized public key encoding"))
}
