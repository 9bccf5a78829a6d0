package provider

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AsymmetricSigner signs with a private key. Signatures use the JWA encoding
// of the algorithm: PKCS#1 v1.5 or PSS for RSA, fixed-width r||s for ECDSA.
type AsymmetricSigner struct {
	method jwt.SigningMethod
	key    crypto.PrivateKey
}

// NewAsymmetricSigner binds alg to key.
func NewAsymmetricSigner(alg string, key crypto.PrivateKey) (*AsymmetricSigner, error) {
	method, err := asymmetricMethod(alg)
	if err != nil {
		return nil, err
	}
	if err := checkPrivateKey(method, key); err != nil {
		return nil, err
	}
	return &AsymmetricSigner{method: method, key: key}, nil
}

// Algorithm returns the bound algorithm name.
func (s *AsymmetricSigner) Algorithm() string { return s.method.Alg() }

// Sign implements Signer.
func (s *AsymmetricSigner) Sign(data []byte) ([]byte, error) {
	sig, err := s.method.Sign(string(data), s.key)
	if err != nil {
		return nil, fmt.Errorf("%s sign: %w", s.method.Alg(), err)
	}
	return sig, nil
}

// Rebind replaces the private key. On error the previous key stays bound.
func (s *AsymmetricSigner) Rebind(key crypto.PrivateKey) error {
	if err := checkPrivateKey(s.method, key); err != nil {
		return err
	}
	s.key = key
	return nil
}

// AsymmetricVerifier checks signatures produced by an AsymmetricSigner holding
// the matching private key.
type AsymmetricVerifier struct {
	method jwt.SigningMethod
	key    crypto.PublicKey
}

// NewAsymmetricVerifier binds alg to key.
func NewAsymmetricVerifier(alg string, key crypto.PublicKey) (*AsymmetricVerifier, error) {
	method, err := asymmetricMethod(alg)
	if err != nil {
		return nil, err
	}
	if err := checkPublicKey(method, key); err != nil {
		return nil, err
	}
	return &AsymmetricVerifier{method: method, key: key}, nil
}

// Algorithm returns the bound algorithm name.
func (v *AsymmetricVerifier) Algorithm() string { return v.method.Alg() }

// Verify implements Verifier.
func (v *AsymmetricVerifier) Verify(data, signature []byte) bool {
	if len(signature) == 0 {
		return false
	}
	return v.method.Verify(string(data), signature, v.key) == nil
}

// Rebind replaces the public key. On error the previous key stays bound.
func (v *AsymmetricVerifier) Rebind(key crypto.PublicKey) error {
	if err := checkPublicKey(v.method, key); err != nil {
		return err
	}
	v.key = key
	return nil
}

func checkPrivateKey(method jwt.SigningMethod, key crypto.PrivateKey) error {
	switch m := method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		k, ok := key.(*rsa.PrivateKey)
		if !ok || k == nil {
			return fmt.Errorf("%w: %s needs *rsa.PrivateKey, got %T", ErrInvalidKey, method.Alg(), key)
		}
		if err := k.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
	case *jwt.SigningMethodECDSA:
		k, ok := key.(*ecdsa.PrivateKey)
		if !ok || k == nil || k.Curve == nil {
			return fmt.Errorf("%w: %s needs *ecdsa.PrivateKey, got %T", ErrInvalidKey, method.Alg(), key)
		}
		if k.Curve.Params().BitSize != m.CurveBits {
			return fmt.Errorf("%w: %s needs a %d-bit curve", ErrInvalidKey, method.Alg(), m.CurveBits)
		}
	case *jwt.SigningMethodEd25519:
		k, ok := key.(ed25519.PrivateKey)
		if !ok || len(k) != ed25519.PrivateKeySize {
			return fmt.Errorf("%w: %s needs ed25519.PrivateKey, got %T", ErrInvalidKey, method.Alg(), key)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, method.Alg())
	}
	return nil
}

func checkPublicKey(method jwt.SigningMethod, key crypto.PublicKey) error {
	switch m := method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		k, ok := key.(*rsa.PublicKey)
		if !ok || k == nil || k.N == nil {
			return fmt.Errorf("%w: %s needs *rsa.PublicKey, got %T", ErrInvalidKey, method.Alg(), key)
		}
	case *jwt.SigningMethodECDSA:
		k, ok := key.(*ecdsa.PublicKey)
		if !ok || k == nil || k.Curve == nil {
			return fmt.Errorf("%w: %s needs *ecdsa.PublicKey, got %T", ErrInvalidKey, method.Alg(), key)
		}
		if k.Curve.Params().BitSize != m.CurveBits {
			return fmt.Errorf("%w: %s needs a %d-bit curve", ErrInvalidKey, method.Alg(), m.CurveBits)
		}
	case *jwt.SigningMethodEd25519:
		k, ok := key.(ed25519.PublicKey)
		if !ok || len(k) != ed25519.PublicKeySize {
			return fmt.Errorf("%w: %s needs ed25519.PublicKey, got %T", ErrInvalidKey, method.Alg(), key)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, method.Alg())
	}
	return nil
}
