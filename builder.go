package padlock

import (
	"time"

	"github.com/MrEthical07/padlock/metadata"
	"github.com/MrEthical07/padlock/provider"
	"go.uber.org/zap"
)

// Builder accumulates the configuration of a Padlock. It is not safe for
// concurrent use. Build resets it, so one Builder can produce many instances.
type Builder[M metadata.Metadata] struct {
	config    Config
	codec     metadata.Codec
	signing   roleConfig[provider.Signer]
	verifying roleConfig[provider.Verifier]
	logger    *zap.Logger
	auditSink AuditSink
}

// New returns a Builder with DefaultConfig, the JSON codec and no providers.
func New[M metadata.Metadata]() *Builder[M] {
	b := &Builder[M]{}
	b.Reset()
	return b
}

// Reset restores the default state.
func (b *Builder[M]) Reset() *Builder[M] {
	*b = Builder[M]{config: DefaultConfig()}
	return b
}

// WithConfig replaces the non-provider settings.
func (b *Builder[M]) WithConfig(cfg Config) *Builder[M] {
	b.config = cfg
	return b
}

// WithMaxValidity caps the validity of signed metadata at d.
func (b *Builder[M]) WithMaxValidity(d time.Duration) *Builder[M] {
	b.config.MaxValidity = d
	b.config.UnboundedValidity = false
	return b
}

// WithUnboundedValidity removes the validity cap.
func (b *Builder[M]) WithUnboundedValidity() *Builder[M] {
	b.config.UnboundedValidity = true
	return b
}

// WithCodec sets the metadata codec. A nil codec selects the JSON codec.
func (b *Builder[M]) WithCodec(c metadata.Codec) *Builder[M] {
	b.codec = c
	return b
}

// WithSigner uses s for every signature under a FIFO lock. It replaces any
// signer factory. A nil s, typed or not, clears the signing role.
func (b *Builder[M]) WithSigner(s provider.Signer) *Builder[M] {
	if isNil(s) {
		b.signing = roleConfig[provider.Signer]{}
		return b
	}
	b.signing = roleConfig[provider.Signer]{mode: ModeShared, shared: s, lock: newFairLock()}
	return b
}

// WithSignerFactory builds signers on demand so concurrent callers never share
// one. It replaces any fixed signer.
func (b *Builder[M]) WithSignerFactory(f provider.SignerFactory) *Builder[M] {
	if isNil(f) {
		b.signing = roleConfig[provider.Signer]{}
		return b
	}
	b.signing = roleConfig[provider.Signer]{mode: ModePerContext, build: f.NewSigner}
	return b
}

// WithVerifier uses v for every verification under a FIFO lock. It replaces
// any verifier factory.
func (b *Builder[M]) WithVerifier(v provider.Verifier) *Builder[M] {
	if isNil(v) {
		b.verifying = roleConfig[provider.Verifier]{}
		return b
	}
	b.verifying = roleConfig[provider.Verifier]{mode: ModeShared, shared: v, lock: newFairLock()}
	return b
}

// WithVerifierFactory builds verifiers on demand. It replaces any fixed verifier.
func (b *Builder[M]) WithVerifierFactory(f provider.VerifierFactory) *Builder[M] {
	if isNil(f) {
		b.verifying = roleConfig[provider.Verifier]{}
		return b
	}
	b.verifying = roleConfig[provider.Verifier]{mode: ModePerContext, build: f.NewVerifier}
	return b
}

// WithUniversal uses u for both roles. Signing and verification then wait on
// the same lock, since u holds a single engine state.
func (b *Builder[M]) WithUniversal(u provider.Universal) *Builder[M] {
	if isNil(u) {
		b.signing = roleConfig[provider.Signer]{}
		b.verifying = roleConfig[provider.Verifier]{}
		return b
	}
	lock := newFairLock()
	b.signing = roleConfig[provider.Signer]{mode: ModeShared, shared: u, lock: lock}
	b.verifying = roleConfig[provider.Verifier]{mode: ModeShared, shared: u, lock: lock}
	return b
}

// WithLogger sets the logger. The default discards everything.
func (b *Builder[M]) WithLogger(l *zap.Logger) *Builder[M] {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder[M]) WithMetricsEnabled(enabled bool) *Builder[M] {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles sign and verify latency histograms.
func (b *Builder[M]) WithLatencyHistograms(enabled bool) *Builder[M] {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithAuditSink enables auditing and delivers events to sink.
func (b *Builder[M]) WithAuditSink(sink AuditSink) *Builder[M] {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// SigningMode reports the discipline currently configured for signing.
func (b *Builder[M]) SigningMode() ProviderMode { return b.signing.mode }

// VerificationMode reports the discipline currently configured for verification.
func (b *Builder[M]) VerificationMode() ProviderMode { return b.verifying.mode }

// Build returns an immutable Padlock and resets the builder, whether or not it
// succeeds.
func (b *Builder[M]) Build() (*Padlock[M], error) {
	defer b.Reset()

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec := b.codec
	if codec == nil {
		codec = metadata.NewJSONCodec()
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics := NewMetrics(cfg.Metrics)

	signing, verifying := b.signing, b.verifying
	if signing.mode == ModeShared && verifying.mode == ModeShared &&
		signing.lock != verifying.lock && sameInstance(signing.shared, verifying.shared) {
		verifying.lock = signing.lock
	}

	maxValidity, bounded := cfg.validityCap()

	p := &Padlock[M]{
		codec:       codec,
		maxValidity: maxValidity,
		bounded:     bounded,
		signers:     newDiscipline(signing, "signing", metrics, logger),
		verifiers:   newDiscipline(verifying, "verification", metrics, logger),
		signMode:    signing.mode,
		verifyMode:  verifying.mode,
		logger:      logger,
		metrics:     metrics,
		audit:       newAuditTrail(cfg.Audit, b.auditSink, logger),
	}

	logger.Debug("padlock: built",
		zap.Stringer("signing", signing.mode),
		zap.Stringer("verification", verifying.mode),
		zap.Bool("bounded", bounded),
		zap.Duration("max_validity", maxValidity),
	)

	return p, nil
}
