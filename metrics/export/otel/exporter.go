package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/padlock"
	"github.com/MrEthical07/padlock/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

// droppedBreakdown is implemented by sources that count audit drops per event
// type, which every Padlock does.
type droppedBreakdown interface {
	AuditDroppedByType() map[string]uint64
}

type outcomeSeries struct {
	id    padlock.MetricID
	attrs metric.ObserveOption
}

// operationCounter is one instrument per Padlock operation with a series per
// outcome.
type operationCounter struct {
	instrument metric.Int64ObservableCounter
	outcomes   []outcomeSeries
}

type latencyGauge struct {
	id      padlock.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes a Padlock snapshot through asynchronous OTel
// instruments:
//
//	padlock.<operation>.calls            counter, attribute outcome
//	padlock.<operation>.latency.buckets  gauge, attribute le (cumulative)
//	padlock.<operation>.latency.count    gauge
//	padlock.audit.dropped                counter, attribute event_type
//
// Close unregisters the callback.
type OTelExporter struct {
	source       padlock.MetricsSource
	registration metric.Registration
	operations   []operationCounter
	latencies    []latencyGauge
	bounds       [padlock.HistogramBucketCount]metric.ObserveOption
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter creates the instruments on meter and registers a callback
// that reads source on every collection.
func NewOTelExporter(meter metric.Meter, source padlock.MetricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	for i, le := range internaldefs.HistogramBounds {
		e.bounds[i] = metric.WithAttributes(attribute.String("le", le))
	}

	var observables []metric.Observable

	byOperation := make(map[string]int)
	for _, def := range internaldefs.CounterDefs {
		idx, ok := byOperation[def.Operation]
		if !ok {
			name := "padlock." + def.Operation + ".calls"
			ins, err := meter.Int64ObservableCounter(name,
				metric.WithDescription(fmt.Sprintf("Padlock %s calls by outcome.", def.Operation)),
				metric.WithUnit("{call}"),
			)
			if err != nil {
				return nil, fmt.Errorf("create observable counter %s: %w", name, err)
			}
			idx = len(e.operations)
			byOperation[def.Operation] = idx
			e.operations = append(e.operations, operationCounter{instrument: ins})
			observables = append(observables, ins)
		}
		e.operations[idx].outcomes = append(e.operations[idx].outcomes, outcomeSeries{
			id:    def.ID,
			attrs: metric.WithAttributes(attribute.String("outcome", def.Outcome)),
		})
	}

	for _, def := range internaldefs.HistogramDefs {
		prefix := "padlock." + def.Operation + ".latency"
		buckets, err := meter.Int64ObservableGauge(prefix+".buckets",
			metric.WithDescription(def.Help+" Cumulative count per upper bound in seconds."),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			return nil, fmt.Errorf("create latency bucket gauge %s: %w", prefix, err)
		}
		count, err := meter.Int64ObservableGauge(prefix+".count",
			metric.WithDescription(def.Help+" Total samples."),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			return nil, fmt.Errorf("create latency count gauge %s: %w", prefix, err)
		}
		e.latencies = append(e.latencies, latencyGauge{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	auditDropped, err := meter.Int64ObservableCounter("padlock.audit.dropped",
		metric.WithDescription("Audit events dropped because the trail buffer was full."),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	if len(snapshot.Counters) > 0 {
		for _, op := range e.operations {
			for _, oc := range op.outcomes {
				observer.ObserveInt64(op.instrument, int64(snapshot.Counters[oc.id]), oc.attrs)
			}
		}
	}

	for _, l := range e.latencies {
		raw, ok := snapshot.Histograms[l.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, n := range cumulative {
			observer.ObserveInt64(l.buckets, int64(n), e.bounds[i])
		}
		observer.ObserveInt64(l.count, int64(cumulative[len(cumulative)-1]))
	}

	if typed, ok := e.source.(droppedBreakdown); ok {
		for eventType, n := range typed.AuditDroppedByType() {
			observer.ObserveInt64(e.auditDropped, int64(n),
				metric.WithAttributes(attribute.String("event_type", eventType)))
		}
		return nil
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback. It is safe on a nil exporter.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
