// Package otel bridges sessionkit's in-process counters to an
// OpenTelemetry Meter.
//
// [NewExporter] registers an Int64ObservableCounter per counter and one
// callback that reads a snapshot on each collection cycle. The package
// never owns the MeterProvider — callers supply the Meter.
package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	sessionkit "github.com/vitaltrace/sessionkit"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is anything that can hand out a counter snapshot;
// *sessionkit.SessionRepository qualifies.
type Source interface {
	MetricsSnapshot() map[sessionkit.MetricID]uint64
}

type observedCounter struct {
	id         sessionkit.MetricID
	instrument metric.Int64ObservableCounter
}

type Exporter struct {
	source       Source
	registration metric.Registration
	counters     []observedCounter
}

// NewExporter registers every sessionkit counter on the meter.
func NewExporter(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	ids := sessionkit.MetricIDs()
	exporter := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(ids)),
	}
	observables := make([]metric.Observable, 0, len(ids))

	for _, id := range ids {
		ins, err := meter.Int64ObservableCounter(
			id.Name(),
			metric.WithDescription("sessionkit lifecycle counter."),
		)
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", id.Name(), err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: id, instrument: ins})
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot[c.id]))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register metrics callback: %w", err)
	}
	exporter.registration = registration

	return exporter, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
