package padlock

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid default config, got %v", err)
	}
	if cfg.MaxValidity != 48*time.Hour {
		t.Fatalf("expected 48h cap, got %s", cfg.MaxValidity)
	}
	if cfg.UnboundedValidity || cfg.Metrics.Enabled || cfg.Audit.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PADLOCK_MAX_VALIDITY", "15m")
	t.Setenv("PADLOCK_METRICS_ENABLED", "true")
	t.Setenv("PADLOCK_METRICS_LATENCY", "true")
	t.Setenv("PADLOCK_AUDIT_ENABLED", "true")
	t.Setenv("PADLOCK_AUDIT_BUFFER", "16")
	t.Setenv("PADLOCK_AUDIT_DROP_IF_FULL", "false")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}

	want := Config{
		MaxValidity: 15 * time.Minute,
		Metrics:     MetricsConfig{Enabled: true, EnableLatencyHistograms: true},
		Audit:       AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: false},
	}
	if cfg != want {
		t.Fatalf("unexpected config:\n got  %+v\n want %+v", cfg, want)
	}
}

func TestConfigFromEnvKeepsDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestConfigFromEnvRejects(t *testing.T) {
	tests := map[string][2]string{
		"unparsable duration": {"PADLOCK_MAX_VALIDITY", "two days"},
		"negative duration":   {"PADLOCK_MAX_VALIDITY", "-1h"},
		"negative buffer":     {"PADLOCK_AUDIT_BUFFER", "-3"},
		"bad bool":            {"PADLOCK_UNBOUNDED_VALIDITY", "perhaps"},
	}

	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := ConfigFromEnv(); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestConfigValidityCap(t *testing.T) {
	cfg := Config{MaxValidity: time.Minute}
	limit, bounded := cfg.validityCap()
	if !bounded || limit != time.Minute {
		t.Fatalf("expected bounded 1m cap, got %s bounded=%v", limit, bounded)
	}

	cfg.UnboundedValidity = true
	if _, bounded = cfg.validityCap(); bounded {
		t.Fatal("expected unbounded cap")
	}
}
