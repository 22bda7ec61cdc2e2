// Package metrics counts what a run saw: lines, parse failures, records, facts
// and hostname lookups. A run dumps them once, in Prometheus text format, for
// the node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	LookupHit      = "hit"
	LookupResolved = "resolved"
	LookupFailed   = "failed"
)

// Metrics holds the run counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Lines       prometheus.Counter
	ParseErrors *prometheus.CounterVec
	Records     *prometheus.CounterVec
	Facts       *prometheus.CounterVec
	Lookups     *prometheus.CounterVec
	Pending     prometheus.Gauge

	registry *prometheus.Registry
}

// New registers the counters on reg. A nil reg gets a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Lines: factory.NewCounter(prometheus.CounterOpts{
			Name: "audit_tracer_lines_total",
			Help: "Total number of input lines read.",
		}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_tracer_parse_errors_total",
			Help: "Lines that could not be parsed, by reason.",
		}, []string{"reason"}),
		Records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_tracer_records_total",
			Help: "Parsed records, by audit record type.",
		}, []string{"kind"}),
		Facts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_tracer_facts_total",
			Help: "Correlated connection facts, by kind.",
		}, []string{"kind"}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_tracer_dns_lookups_total",
			Help: "Hostname resolutions, by outcome (hit, resolved, failed).",
		}, []string{"outcome"}),
		Pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audit_tracer_pending_events",
			Help: "SYSCALL events never matched by a SOCKADDR record.",
		}),
		registry: reg,
	}
}

// ObserveLine counts one input line.
func (m *Metrics) ObserveLine() {
	if m == nil {
		return
	}
	m.Lines.Inc()
}

// ObserveParseError counts one unparseable line.
func (m *Metrics) ObserveParseError(reason string) {
	if m == nil {
		return
	}
	m.ParseErrors.WithLabelValues(reason).Inc()
}

// ObserveRecord counts one parsed record.
func (m *Metrics) ObserveRecord(kind string) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(kind).Inc()
}

// ObserveFact counts one emitted fact.
func (m *Metrics) ObserveFact(kind string) {
	if m == nil {
		return
	}
	m.Facts.WithLabelValues(kind).Inc()
}

// ObserveLookup counts one hostname resolution.
func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(outcome).Inc()
}

// SetPending records the number of unmatched events left at the end of a run.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.Pending.Set(float64(n))
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
