package provider

import "crypto"

// AsymmetricSignerFactory builds AsymmetricSigner instances sharing one key.
type AsymmetricSignerFactory struct {
	alg string
	key crypto.PrivateKey
}

// NewAsymmetricSignerFactory records alg and key. Nothing is validated until
// NewSigner is called.
func NewAsymmetricSignerFactory(alg string, key crypto.PrivateKey) *AsymmetricSignerFactory {
	return &AsymmetricSignerFactory{alg: alg, key: key}
}

// NewSigner implements SignerFactory.
func (f *AsymmetricSignerFactory) NewSigner() (Signer, error) {
	s, err := NewAsymmetricSigner(f.alg, f.key)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AsymmetricVerifierFactory builds AsymmetricVerifier instances sharing one key.
type AsymmetricVerifierFactory struct {
	alg string
	key crypto.PublicKey
}

// NewAsymmetricVerifierFactory records alg and key.
func NewAsymmetricVerifierFactory(alg string, key crypto.PublicKey) *AsymmetricVerifierFactory {
	return &AsymmetricVerifierFactory{alg: alg, key: key}
}

// NewVerifier implements VerifierFactory.
func (f *AsymmetricVerifierFactory) NewVerifier() (Verifier, error) {
	v, err := NewAsymmetricVerifier(f.alg, f.key)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// SymmetricFactory builds Symmetric instances. It satisfies both SignerFactory
// and VerifierFactory.
type SymmetricFactory struct {
	alg string
	key []byte
}

// NewSymmetricFactory records alg and a copy of key.
func NewSymmetricFactory(alg string, key []byte) *SymmetricFactory {
	return &SymmetricFactory{alg: alg, key: append([]byte(nil), key...)}
}

// NewUniversal returns a fresh Symmetric provider.
func (f *SymmetricFactory) NewUniversal() (*Symmetric, error) {
	return NewSymmetric(f.alg, f.key)
}

// NewSigner implements SignerFactory.
func (f *SymmetricFactory) NewSigner() (Signer, error) {
	s, err := f.NewUniversal()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewVerifier implements VerifierFactory.
func (f *SymmetricFactory) NewVerifier() (Verifier, error) {
	s, err := f.NewUniversal()
	if err != nil {
		return nil, err
	}
	return s, nil
}
