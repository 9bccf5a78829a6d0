package metadata

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metadata is the constraint every claim payload satisfies. Custom payloads
// usually embed [ClaimMetadata] to inherit it.
type Metadata interface {
	// ClaimID returns the opaque identifier of the claim.
	ClaimID() uuid.UUID
	// Validity returns the span between issuance and expiration, or zero when
	// the claim never expires.
	Validity() time.Duration
	// Valid reports whether at falls inside [issuance, expiration).
	Valid(at time.Time) bool
}

// Validator is implemented by metadata that can reject an incomplete decode.
type Validator interface {
	Validate() error
}

// ClaimMetadata identifies a claim and bounds the window in which it is
// current. A nil Expiration means the claim never expires.
//
// Values are copied on every With* call; once a signature has been computed
// over a ClaimMetadata, changing any field invalidates that signature.
type ClaimMetadata struct {
	Identifier uuid.UUID `json:"identifier"`
	Issuance   Instant   `json:"issuance"`
	Expiration *Instant  `json:"expiration"`
}

// New returns metadata valid from issuance until expiration.
func New(id uuid.UUID, issuance, expiration time.Time) ClaimMetadata {
	exp := At(expiration)
	return ClaimMetadata{Identifier: id, Issuance: At(issuance), Expiration: &exp}
}

// NewNonExpiring returns metadata that never expires.
func NewNonExpiring(id uuid.UUID, issuance time.Time) ClaimMetadata {
	return ClaimMetadata{Identifier: id, Issuance: At(issuance)}
}

// NewWithDuration returns metadata valid for d starting at issuance.
func NewWithDuration(id uuid.UUID, issuance time.Time, d time.Duration) ClaimMetadata {
	return New(id, issuance, issuance.Add(d))
}

// NewFromNow returns metadata with a random identifier, issued now and valid for d.
func NewFromNow(d time.Duration) ClaimMetadata {
	return NewWithDuration(uuid.New(), time.Now(), d)
}

// ClaimID implements Metadata.
func (m ClaimMetadata) ClaimID() uuid.UUID {
	return m.Identifier
}

// Expires reports whether the claim has an expiration instant.
func (m ClaimMetadata) Expires() bool {
	return m.Expiration != nil
}

// ExpiresAt returns the expiration instant, if any.
func (m ClaimMetadata) ExpiresAt() (time.Time, bool) {
	if m.Expiration == nil {
		return time.Time{}, false
	}
	return m.Expiration.Time, true
}

// Validity implements Metadata.
func (m ClaimMetadata) Validity() time.Duration {
	if m.Expiration == nil {
		return 0
	}
	return m.Expiration.Sub(m.Issuance.Time)
}

// NotYetValid reports whether at precedes issuance.
func (m ClaimMetadata) NotYetValid(at time.Time) bool {
	return at.Before(m.Issuance.Time)
}

// Expired reports whether at is at or past the expiration instant.
func (m ClaimMetadata) Expired(at time.Time) bool {
	if m.Expiration == nil {
		return false
	}
	return !at.Before(m.Expiration.Time)
}

// Valid implements Metadata.
func (m ClaimMetadata) Valid(at time.Time) bool {
	return !m.NotYetValid(at) && !m.Expired(at)
}

// WithIssuance returns a copy issued at t. The expiration is left untouched.
func (m ClaimMetadata) WithIssuance(t time.Time) ClaimMetadata {
	m.Issuance = At(t)
	return m
}

// WithExpiration returns a copy expiring at t.
func (m ClaimMetadata) WithExpiration(t time.Time) ClaimMetadata {
	exp := At(t)
	m.Expiration = &exp
	return m
}

// WithoutExpiration returns a copy that never expires.
func (m ClaimMetadata) WithoutExpiration() ClaimMetadata {
	m.Expiration = nil
	return m
}

// WithValidity returns a copy expiring d after its issuance.
func (m ClaimMetadata) WithValidity(d time.Duration) ClaimMetadata {
	return m.WithExpiration(m.Issuance.Time.Add(d))
}

// Validate implements Validator.
func (m ClaimMetadata) Validate() error {
	if m.Identifier == uuid.Nil {
		return fmt.Errorf("%w: missing identifier", ErrInvalidMetadata)
	}
	if m.Issuance.IsZero() {
		return fmt.Errorf("%w: missing issuance", ErrInvalidMetadata)
	}
	return nil
}
