package padlock

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultMaxValidity is the validity cap applied unless configured otherwise.
const DefaultMaxValidity = 48 * time.Hour

// EnvPrefix is prepended to every variable read by ConfigFromEnv.
const EnvPrefix = "PADLOCK_"

// Config holds the non-provider settings of a Padlock.
type Config struct {
	// MaxValidity caps the validity of signed metadata. Zero rejects every
	// claim with a positive validity.
	MaxValidity time.Duration `env:"MAX_VALIDITY"`
	// UnboundedValidity disables the cap entirely.
	UnboundedValidity bool `env:"UNBOUNDED_VALIDITY"`

	Metrics MetricsConfig `envPrefix:"METRICS_"`
	Audit   AuditConfig   `envPrefix:"AUDIT_"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY"`
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit trail.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return Config{
		MaxValidity: DefaultMaxValidity,
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

// ConfigFromEnv starts from DefaultConfig and overrides every field whose
// PADLOCK_* variable is set.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Join(ErrInvalidConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.MaxValidity < 0 {
		return fmt.Errorf("%w: MaxValidity must be >= 0", ErrInvalidConfiguration)
	}
	if c.Audit.BufferSize < 0 {
		return fmt.Errorf("%w: Audit BufferSize must be >= 0", ErrInvalidConfiguration)
	}
	return nil
}

func (c Config) validityCap() (time.Duration, bool) {
	if c.UnboundedValidity {
		return 0, false
	}
	return c.MaxValidity, true
}
