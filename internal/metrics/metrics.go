package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store holds the Prometheus collectors, registered on a private registry.
// All helper methods are safe to call on a nil *Store.
type Store struct {
	Registry            *prometheus.Registry
	ComparisonRunning   prometheus.Gauge
	ComparisonsTotal    *prometheus.CounterVec
	ComparisonDuration  prometheus.Histogram
	ParseDuration       *prometheus.HistogramVec
	TablesParsed        *prometheus.GaugeVec
	DiffEntriesTotal    *prometheus.CounterVec
	StatementsGenerated *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
}

func NewMetricsStore() *Store {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Store{
		Registry: registry,
		ComparisonRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dbcompare_comparisons_in_flight",
			Help: "Number of schema comparisons currently running.",
		}),
		ComparisonsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dbcompare_comparisons_total",
			Help: "Total number of schema comparisons, labeled by dialect and outcome.",
		}, []string{"dialect", "status"}), // status: identical, different, failed
		ComparisonDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dbcompare_comparison_duration_seconds",
			Help:    "Duration of a full comparison including loading both sides.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 15),
		}),
		ParseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dbcompare_load_duration_seconds",
			Help:    "Time spent loading and parsing one side of a comparison.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"side"}),
		TablesParsed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dbcompare_tables_parsed",
			Help: "Number of tables found on each side by the last comparison.",
		}, []string{"side"}),
		DiffEntriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dbcompare_diff_entries_total",
			Help: "Differences found, labeled by kind (table_added, column_modified, ...).",
		}, []string{"kind"}),
		StatementsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dbcompare_sync_statements_total",
			Help: "Executable statements emitted into sync scripts.",
		}, []string{"dialect"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dbcompare_errors_total",
			Help: "Errors by type and side.",
		}, []string{"type", "side"}), // types: io, connection_failed, connection_cancelled, introspect, credentials, cross_dialect, unsupported_dialect
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dbcompare_http_requests_total",
			Help: "API requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

func (s *Store) RecordError(errType, side string) {
	if s == nil {
		return
	}
	s.ErrorsTotal.WithLabelValues(errType, side).Inc()
}

func (s *Store) ObserveLoad(side string, tables int, d time.Duration) {
	if s == nil {
		return
	}
	s.ParseDuration.WithLabelValues(side).Observe(d.Seconds())
	s.TablesParsed.WithLabelValues(side).Set(float64(tables))
}

// ObserveDiff adds per-kind counts, skipping zero entries.
func (s *Store) ObserveDiff(counts map[string]int) {
	if s == nil {
		return
	}
	for kind, n := range counts {
		if n > 0 {
			s.DiffEntriesTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
}

func (s *Store) ObserveStatements(dialect string, n int) {
	if s == nil || n <= 0 {
		return
	}
	s.StatementsGenerated.WithLabelValues(dialect).Add(float64(n))
}

// StartComparison marks a comparison as running and returns the function that
// records its outcome.
func (s *Store) StartComparison(dialect string) func(status string) {
	if s == nil {
		return func(string) {}
	}
	start := time.Now()
	s.ComparisonRunning.Inc()
	return func(status string) {
		s.ComparisonRunning.Dec()
		s.ComparisonDuration.Observe(time.Since(start).Seconds())
		s.ComparisonsTotal.WithLabelValues(dialect, status).Inc()
	}
}

func (s *Store) RecordRequest(route, code string) {
	if s == nil {
		return
	}
	s.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
}
