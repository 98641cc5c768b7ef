// Package metrics records pipeline run statistics for the node exporter
// textfile collector. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "uls_etl"

// Metrics holds the collectors of one process
type Metrics struct {
	registry *prometheus.Registry

	fetchAttempts  *prometheus.CounterVec
	linesParsed    *prometheus.CounterVec
	linesDropped   *prometheus.CounterVec
	recordsWritten *prometheus.GaugeVec
	runDuration    *prometheus.HistogramVec
	runsTotal      *prometheus.CounterVec
	lastSuccess    *prometheus.GaugeVec
}

// New registers all collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "Archive download attempts by dataset, scheme and outcome",
			},
			[]string{"dataset", "scheme", "outcome"},
		),
		linesParsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lines_parsed_total",
				Help:      "Payload lines that produced a record",
			},
			[]string{"dataset"},
		),
		linesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lines_dropped_total",
				Help:      "Payload lines without an identifying key",
			},
			[]string{"dataset"},
		),
		recordsWritten: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records_written",
				Help:      "Records in the last written output",
			},
			[]string{"dataset"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of pipeline runs",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
			},
			[]string{"dataset"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by outcome",
			},
			[]string{"dataset", "outcome"},
		),
		lastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
			[]string{"dataset"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveFetch records one locator attempt
func (m *Metrics) ObserveFetch(dataset, scheme string, err error) {
	if m == nil {
		return
	}
	m.fetchAttempts.WithLabelValues(dataset, scheme, outcome(err)).Inc()
}

// ObserveParse records the line counts of one parse
func (m *Metrics) ObserveParse(dataset string, parsed, dropped int) {
	if m == nil {
		return
	}
	m.linesParsed.WithLabelValues(dataset).Add(float64(parsed))
	m.linesDropped.WithLabelValues(dataset).Add(float64(dropped))
}

// ObserveRun records the end of a run
func (m *Metrics) ObserveRun(dataset string, written int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(dataset, outcome(err)).Inc()
	m.runDuration.WithLabelValues(dataset).Observe(elapsed.Seconds())
	if err == nil {
		m.recordsWritten.WithLabelValues(dataset).Set(float64(written))
		m.lastSuccess.WithLabelValues(dataset).SetToCurrentTime()
	}
}

// Gatherer exposes the registry
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile atomically writes all metrics to path in text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
