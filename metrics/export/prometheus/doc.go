// Package prometheus exposes Padlock counters and latency histograms through
// github.com/prometheus/client_golang.
//
// [NewPrometheusExporter] accepts any [padlock.MetricsSource] and builds a
// collector plus a private registry. Counter names are padlock_*_total; the
// histograms are padlock_sign_latency_seconds and
// padlock_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate Padlock state.
package prometheus
