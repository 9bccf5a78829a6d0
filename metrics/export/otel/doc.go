// Package otel publishes Padlock counters and latency histograms as
// OpenTelemetry asynchronous instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per operation (sign,
// verify, decode, provider_build) with an outcome attribute, and one bucket
// gauge per latency histogram keyed by le. A single callback reads
// [padlock.MetricsSource.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate Padlock state.
package otel
