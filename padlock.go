package padlock

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/MrEthical07/padlock/metadata"
	"github.com/MrEthical07/padlock/provider"
	"go.uber.org/zap"
)

const delimiter = '.'

var segmentEncoding = base64.URLEncoding.Strict()

// Padlock signs, verifies, encodes and decodes claims carrying metadata of
// type M. It is safe for concurrent use once built.
type Padlock[M metadata.Metadata] struct {
	codec       metadata.Codec
	maxValidity time.Duration
	bounded     bool

	signers    discipline[provider.Signer]
	verifiers  discipline[provider.Verifier]
	signMode   ProviderMode
	verifyMode ProviderMode

	logger  *zap.Logger
	metrics *Metrics
	audit   *auditTrail
}

// MaxValidity returns the validity cap and whether one applies.
func (p *Padlock[M]) MaxValidity() (time.Duration, bool) {
	return p.maxValidity, p.bounded
}

// SigningMode reports the signing discipline.
func (p *Padlock[M]) SigningMode() ProviderMode { return p.signMode }

// VerificationMode reports the verification discipline.
func (p *Padlock[M]) VerificationMode() ProviderMode { return p.verifyMode }

// Sign encodes m and signs the result.
//
// Sign fails with ErrNoProvider when no signer is configured and with
// ErrValidityExceeded when m.Validity() is above the cap; both checks run
// before any encoding or cryptographic work. Codec failures satisfy
// errors.Is(err, ErrCodec) and primitive failures errors.Is(err, ErrSigningFailed).
func (p *Padlock[M]) Sign(m M) (Claim[M], error) {
	start := time.Now()

	if p.signers == nil {
		p.metrics.Inc(MetricSignNoProvider)
		return Claim[M]{}, ErrNoProvider
	}

	if p.bounded {
		if v := m.Validity(); v > p.maxValidity {
			p.metrics.Inc(MetricSignValidityExceeded)
			p.logger.Warn("padlock: validity exceeds maximum",
				zap.Stringer("claim_id", m.ClaimID()),
				zap.Duration("validity", v),
				zap.Duration("max_validity", p.maxValidity),
			)
			p.emit(EventClaimSignRejected, m, false, ErrValidityExceeded)
			return Claim[M]{}, fmt.Errorf("%w: %s > %s", ErrValidityExceeded, v, p.maxValidity)
		}
	}

	data, err := p.encodeMetadata(m)
	if err != nil {
		p.metrics.Inc(MetricSignFailure)
		p.emit(EventClaimSignRejected, m, false, err)
		return Claim[M]{}, err
	}

	var (
		sig     []byte
		signErr error
	)
	if err := p.signers.with(func(s provider.Signer) {
		sig, signErr = s.Sign(data)
	}); err != nil {
		p.metrics.Inc(MetricSignFailure)
		p.emit(EventClaimSignRejected, m, false, err)
		return Claim[M]{}, fmt.Errorf("obtain signer: %w", err)
	}
	if signErr != nil {
		p.metrics.Inc(MetricSignFailure)
		p.logger.Warn("padlock: signing failed", zap.Stringer("claim_id", m.ClaimID()), zap.Error(signErr))
		p.emit(EventClaimSignRejected, m, false, signErr)
		return Claim[M]{}, errors.Join(ErrSigningFailed, signErr)
	}

	p.metrics.Inc(MetricSignSuccess)
	p.metrics.Observe(MetricSignLatency, time.Since(start))
	p.emit(EventClaimSigned, m, true, nil)

	return Claim[M]{metadata: m, signature: sig}, nil
}

// Verify reports whether the signature of c matches its freshly encoded
// metadata. It does not look at the validity window.
//
// Verify returns an error only when the verification role is misconfigured:
// ErrNoProvider, or the factory error of a per-context verifier. A forged or
// corrupted claim yields false and a nil error.
func (p *Padlock[M]) Verify(c Claim[M]) (bool, error) {
	start := time.Now()

	if p.verifiers == nil {
		p.metrics.Inc(MetricVerifyNoProvider)
		return false, ErrNoProvider
	}

	data, err := p.encodeMetadata(c.metadata)
	if err != nil {
		p.verifyFailed(c, err)
		return false, nil
	}

	var ok bool
	if err := p.verifiers.with(func(v provider.Verifier) {
		ok = v.Verify(data, c.signature)
	}); err != nil {
		return false, fmt.Errorf("obtain verifier: %w", err)
	}

	if !ok {
		p.verifyFailed(c, nil)
		return false, nil
	}

	p.metrics.Inc(MetricVerifySuccess)
	p.metrics.Observe(MetricVerifyLatency, time.Since(start))
	p.emit(EventClaimVerified, c.metadata, true, nil)
	return true, nil
}

func (p *Padlock[M]) verifyFailed(c Claim[M], cause error) {
	p.metrics.Inc(MetricVerifyFailure)
	if cause != nil {
		p.logger.Debug("padlock: verification failed", zap.Stringer("claim_id", c.metadata.ClaimID()), zap.Error(cause))
	} else {
		p.logger.Debug("padlock: signature mismatch", zap.Stringer("claim_id", c.metadata.ClaimID()))
	}
	p.emit(EventClaimVerificationFailed, c.metadata, false, cause)
}

// Encode renders c as base64url(metadata) "." base64url(signature).
func (p *Padlock[M]) Encode(c Claim[M]) (string, error) {
	data, err := p.encodeMetadata(c.metadata)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(segmentEncoding.EncodedLen(len(data)) + 1 + segmentEncoding.EncodedLen(len(c.signature)))
	b.WriteString(segmentEncoding.EncodeToString(data))
	b.WriteByte(delimiter)
	b.WriteString(segmentEncoding.EncodeToString(c.signature))
	return b.String(), nil
}

// Decode splits token at its first '.', decodes both segments and rebuilds
// the metadata. The signature segment may itself contain '.'. The result is
// not verified.
func (p *Padlock[M]) Decode(token string) (Claim[M], error) {
	c, err := p.decode(token)
	if err != nil {
		p.metrics.Inc(MetricDecodeFailure)
		p.logger.Debug("padlock: decode failed", zap.Error(err))
		p.emitEvent(AuditEvent{
			EventType:    EventClaimDecodeFailed,
			MetadataType: reflect.TypeOf((*M)(nil)).Elem().String(),
			Error:        err.Error(),
		})
		return Claim[M]{}, err
	}
	p.metrics.Inc(MetricDecodeSuccess)
	return c, nil
}

func (p *Padlock[M]) decode(token string) (Claim[M], error) {
	head, tail, found := strings.Cut(token, string(delimiter))
	if !found {
		return Claim[M]{}, fmt.Errorf("%w: missing delimiter", ErrMalformedClaim)
	}

	data, err := decodeSegment(head)
	if err != nil {
		return Claim[M]{}, fmt.Errorf("%w: metadata segment: %v", ErrMalformedClaim, err)
	}
	sig, err := decodeSegment(tail)
	if err != nil {
		return Claim[M]{}, fmt.Errorf("%w: signature segment: %v", ErrMalformedClaim, err)
	}

	var m M
	if err := p.codec.Decode(data, &m); err != nil {
		return Claim[M]{}, codecError(err)
	}
	return Claim[M]{metadata: m, signature: sig}, nil
}

// Issue signs m and encodes the resulting claim.
func (p *Padlock[M]) Issue(m M) (string, error) {
	c, err := p.Sign(m)
	if err != nil {
		return "", err
	}
	return p.Encode(c)
}

// Authenticate decodes token, verifies it and checks that now falls inside
// its validity window. It returns ErrClaimRejected for a bad signature and
// ErrClaimNotValid for an expired or not yet valid claim.
func (p *Padlock[M]) Authenticate(token string, now time.Time) (Claim[M], error) {
	c, err := p.Decode(token)
	if err != nil {
		return Claim[M]{}, err
	}
	ok, err := p.Verify(c)
	if err != nil {
		return Claim[M]{}, err
	}
	if !ok {
		return Claim[M]{}, ErrClaimRejected
	}
	if !c.metadata.Valid(now) {
		return Claim[M]{}, fmt.Errorf("%w: claim %s", ErrClaimNotValid, c.metadata.ClaimID())
	}
	return c, nil
}

// MetricsSnapshot returns a copy of the counters. It is empty when metrics are
// disabled.
func (p *Padlock[M]) MetricsSnapshot() MetricsSnapshot {
	return p.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (p *Padlock[M]) AuditDropped() uint64 {
	return p.audit.droppedCount()
}

// AuditDroppedByType breaks AuditDropped down by event type.
func (p *Padlock[M]) AuditDroppedByType() map[string]uint64 {
	return p.audit.droppedByType()
}

// Close flushes the audit trail and closes per-context providers that
// implement io.Closer. Shared providers belong to the caller and are left
// open. Per-context operations after Close fail with ErrClosed.
func (p *Padlock[M]) Close() error {
	var errs []error
	if p.signers != nil {
		errs = append(errs, p.signers.close())
	}
	if p.verifiers != nil {
		errs = append(errs, p.verifiers.close())
	}
	p.audit.close()
	return errors.Join(errs...)
}

func (p *Padlock[M]) encodeMetadata(m M) ([]byte, error) {
	data, err := p.codec.Encode(m)
	if err != nil {
		return nil, codecError(err)
	}
	return data, nil
}

func (p *Padlock[M]) emit(eventType string, m M, success bool, err error) {
	if p.audit == nil {
		return
	}
	event := AuditEvent{
		EventType:    eventType,
		ClaimID:      m.ClaimID().String(),
		MetadataType: reflect.TypeOf((*M)(nil)).Elem().String(),
		Success:      success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	p.emitEvent(event)
}

func (p *Padlock[M]) emitEvent(event AuditEvent) {
	p.audit.record(event)
}

func codecError(err error) error {
	if errors.Is(err, ErrCodec) {
		return err
	}
	return errors.Join(ErrCodec, err)
}

// decodeSegment only accepts the exact form Encode writes. The base64
// decoder skips CR and LF even in strict mode, so those are refused first.
func decodeSegment(s string) ([]byte, error) {
	if strings.ContainsAny(s, "\r\n") {
		return nil, errors.New("line break in segment")
	}
	return segmentEncoding.DecodeString(s)
}
