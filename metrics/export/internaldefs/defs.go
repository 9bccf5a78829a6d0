package internaldefs

import (
	"github.com/MrEthical07/padlock"
)

// CounterDef names one Padlock counter for exporters. Operation and Outcome
// split the flat name for exporters that group series by attribute.
type CounterDef struct {
	ID        padlock.MetricID
	Name      string
	Help      string
	Operation string
	Outcome   string
}

// HistogramDef names one Padlock latency histogram for exporters.
type HistogramDef struct {
	ID        padlock.MetricID
	Name      string
	Help      string
	Operation string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: padlock.MetricSignSuccess, Name: "padlock_sign_success_total", Help: "Claims signed.", Operation: "sign", Outcome: "success"},
	{ID: padlock.MetricSignFailure, Name: "padlock_sign_failure_total", Help: "Sign calls that failed in the codec or the signing primitive.", Operation: "sign", Outcome: "failure"},
	{ID: padlock.MetricSignValidityExceeded, Name: "padlock_sign_validity_exceeded_total", Help: "Sign calls rejected by the maximum validity.", Operation: "sign", Outcome: "validity_exceeded"},
	{ID: padlock.MetricSignNoProvider, Name: "padlock_sign_no_provider_total", Help: "Sign calls without a configured signer.", Operation: "sign", Outcome: "no_provider"},
	{ID: padlock.MetricVerifySuccess, Name: "padlock_verify_success_total", Help: "Claims whose signature matched.", Operation: "verify", Outcome: "success"},
	{ID: padlock.MetricVerifyFailure, Name: "padlock_verify_failure_total", Help: "Claims whose signature did not match.", Operation: "verify", Outcome: "failure"},
	{ID: padlock.MetricVerifyNoProvider, Name: "padlock_verify_no_provider_total", Help: "Verify calls without a configured verifier.", Operation: "verify", Outcome: "no_provider"},
	{ID: padlock.MetricDecodeSuccess, Name: "padlock_decode_success_total", Help: "Tokens decoded.", Operation: "decode", Outcome: "success"},
	{ID: padlock.MetricDecodeFailure, Name: "padlock_decode_failure_total", Help: "Tokens rejected as malformed.", Operation: "decode", Outcome: "failure"},
	{ID: padlock.MetricProviderBuilt, Name: "padlock_provider_built_total", Help: "Per-context providers constructed.", Operation: "provider_build", Outcome: "success"},
	{ID: padlock.MetricProviderBuildFailure, Name: "padlock_provider_build_failure_total", Help: "Per-context provider factory failures.", Operation: "provider_build", Outcome: "failure"},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: padlock.MetricSignLatency, Name: "padlock_sign_latency_seconds", Help: "Sign latency histogram.", Operation: "sign"},
	{ID: padlock.MetricVerifyLatency, Name: "padlock_verify_latency_seconds", Help: "Verify latency histogram.", Operation: "verify"},
}

// AuditDroppedName is the counter for audit events dropped under backpressure.
const AuditDroppedName = "padlock_audit_dropped_total"

// HistogramBounds are the bucket upper bounds in seconds, as rendered labels.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

// HistogramUpperBounds are the finite bucket upper bounds in seconds.
var HistogramUpperBounds = []float64{
	0.00005,
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.005,
	0.025,
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [padlock.HistogramBucketCount]uint64 {
	var out [padlock.HistogramBucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [padlock.HistogramBucketCount]uint64) [padlock.HistogramBucketCount]uint64 {
	var out [padlock.HistogramBucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
