package provider

// Signer produces a signature over data. Implementations must not retain or
// modify data.
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

// Verifier reports whether signature is valid for data. Every internal failure
// is reported as false.
type Verifier interface {
	Verify(data, signature []byte) bool
}

// Universal signs and verifies with the same key.
type Universal interface {
	Signer
	Verifier
}

// SignerFactory builds independent Signer instances. Each call must return a
// fresh instance.
type SignerFactory interface {
	NewSigner() (Signer, error)
}

// VerifierFactory builds independent Verifier instances. Each call must return
// a fresh instance.
type VerifierFactory interface {
	NewVerifier() (Verifier, error)
}

// SignerFactoryFunc adapts a function to SignerFactory.
type SignerFactoryFunc func() (Signer, error)

// NewSigner implements SignerFactory.
func (f SignerFactoryFunc) NewSigner() (Signer, error) { return f() }

// VerifierFactoryFunc adapts a function to VerifierFactory.
type VerifierFactoryFunc func() (Verifier, error)

// NewVerifier implements VerifierFactory.
func (f VerifierFactoryFunc) NewVerifier() (Verifier, error) { return f() }
