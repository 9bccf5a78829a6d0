package provider

import (
	"crypto/hmac"
	"fmt"
	"hash"
)

// Symmetric is a Universal provider backed by a keyed hash. It keeps one MAC
// state that is reset on every call, so a single instance must not be used
// from two goroutines at once.
type Symmetric struct {
	alg    string
	newMAC macConstructor
	mac    hash.Hash
}

// NewSymmetric binds alg to a copy of key.
func NewSymmetric(alg string, key []byte) (*Symmetric, error) {
	newMAC, err := symmetricMAC(alg)
	if err != nil {
		return nil, err
	}
	mac, err := bindMAC(alg, newMAC, key)
	if err != nil {
		return nil, err
	}
	return &Symmetric{alg: alg, newMAC: newMAC, mac: mac}, nil
}

func bindMAC(alg string, newMAC macConstructor, key []byte) (hash.Hash, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: %s needs a non-empty secret", ErrInvalidKey, alg)
	}
	mac, err := newMAC(append([]byte(nil), key...))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return mac, nil
}

// Algorithm returns the bound algorithm name.
func (s *Symmetric) Algorithm() string { return s.alg }

// Sign implements Signer.
func (s *Symmetric) Sign(data []byte) ([]byte, error) {
	return s.sum(data), nil
}

// Verify implements Verifier with a constant-time comparison.
func (s *Symmetric) Verify(data, tag []byte) bool {
	if len(tag) == 0 {
		return false
	}
	return hmac.Equal(s.sum(data), tag)
}

// Rebind replaces the secret and reinitializes the MAC state. On error the
// previous secret stays bound.
func (s *Symmetric) Rebind(key []byte) error {
	mac, err := bindMAC(s.alg, s.newMAC, key)
	if err != nil {
		return err
	}
	s.mac = mac
	return nil
}

func (s *Symmetric) sum(data []byte) []byte {
	s.mac.Reset()
	s.mac.Write(data)
	return s.mac.Sum(nil)
}
