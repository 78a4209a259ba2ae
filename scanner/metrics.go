package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes scan observability for watch mode.
type Metrics struct {
	ScansTotal   prometheus.Counter
	ScanFailures prometheus.Counter
	ScanDuration prometheus.Histogram
	DriftPercent *prometheus.GaugeVec
	OrphanedIDs  *prometheus.GaugeVec
}

// NewMetrics creates and registers the scanner collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agent3d",
			Subsystem: "scanner",
			Name:      "scans_total",
			Help:      "Total drift scans executed.",
		}),
		ScanFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agent3d",
			Subsystem: "scanner",
			Name:      "scan_failures_total",
			Help:      "Drift scans that failed before producing a report.",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agent3d",
			Subsystem: "scanner",
			Name:      "scan_duration_seconds",
			Help:      "Wall-clock duration of drift scans.",
			Buckets:   prometheus.DefBuckets,
		}),
		DriftPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "agent3d",
			Subsystem: "scanner",
			Name:      "drift_percent",
			Help:      "Latest drift percentage per mode.",
		}, []string{"mode"}),
		OrphanedIDs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "agent3d",
			Subsystem: "scanner",
			Name:      "orphaned_identifiers",
			Help:      "Latest orphaned identifier count per mode.",
		}, []string{"mode"}),
	}

	reg.MustRegister(m.ScansTotal, m.ScanFailures, m.ScanDuration, m.DriftPercent, m.OrphanedIDs)
	return m
}

// Observe records one completed scan report.
func (m *Metrics) Observe(report *Report, seconds float64) {
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(seconds)
	for _, mode := range report.Modes {
		m.DriftPercent.WithLabelValues(string(mode.Mode)).Set(mode.DriftPercent)
		m.OrphanedIDs.WithLabelValues(string(mode.Mode)).Set(
			float64(mode.Counts.OrphanedInDocs + mode.Counts.OrphanedInCode))
	}
}
