//go:build cgo

package pkcs11

import (
	"crypto"
	"fmt"
	"sync"

	p11 "github.com/miekg/pkcs11"
)

// Signer signs with one token key over one PKCS#11 session. It is not safe
// for concurrent use; the per-context discipline hands it to one caller at a
// time.
type Signer struct {
	ctx     *p11.Ctx
	session p11.SessionHandle
	key     p11.ObjectHandle
	alg     string
	hash    crypto.Hash

	closeOnce sync.Once
	closed    bool
}

// Algorithm implements provider.Signer.
func (s *Signer) Algorithm() string {
	return s.alg
}

// Sign hashes data and asks the token for a raw r||s ECDSA signature.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}

	h := s.hash.New()
	h.Write(data)
	digest := h.Sum(nil)

	mech := []*p11.Mechanism{p11.NewMechanism(p11.CKM_ECDSA, nil)}
	if err := s.ctx.SignInit(s.session, mech, s.key); err != nil {
		return nil, fmt.Errorf("pkcs11: sign init: %w", err)
	}
	sig, err := s.ctx.Sign(s.session, digest)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: sign: %w", err)
	}
	return sig, nil
}

// Close releases the session. It is safe to call more than once.
func (s *Signer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed = true
		err = s.ctx.CloseSession(s.session)
	})
	return err
}
