package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of one scrape run
type Metrics struct {
	registry *prometheus.Registry

	ListingRows     prometheus.Counter
	SkippedRows     *prometheus.CounterVec
	DetailFetches   *prometheus.CounterVec
	WaitTimeouts    *prometheus.CounterVec
	Failures        *prometheus.CounterVec
	RecordsExported *prometheus.CounterVec
	DetailDuration  prometheus.Histogram
}

// New registers a fresh set of counters on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ListingRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "isef_listing_rows_total",
			Help: "Listing rows parsed from the results table.",
		}),
		SkippedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isef_listing_rows_skipped_total",
			Help: "Listing rows dropped before detail fetch.",
		}, []string{"reason"}), // malformed, no_link
		DetailFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isef_detail_fetches_total",
			Help: "Detail page fetches by outcome.",
		}, []string{"outcome"}), // ok, empty, failed, degraded
		WaitTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isef_wait_timeouts_total",
			Help: "Bounded waits that were never satisfied.",
		}, []string{"step"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isef_failures_total",
			Help: "Failures by taxonomy class.",
		}, []string{"class"}),
		RecordsExported: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isef_records_exported_total",
			Help: "Records written per sink.",
		}, []string{"sink"}),
		DetailDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "isef_detail_fetch_duration_seconds",
			Help:    "Duration of detail page fetches.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30},
		}),
	}
}

func (m *Metrics) IncSkipped(reason string, n int) {
	m.SkippedRows.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) IncDetail(outcome string) {
	m.DetailFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncWaitTimeout(step string) {
	m.WaitTimeouts.WithLabelValues(step).Inc()
}

func (m *Metrics) IncFailure(class string) {
	m.Failures.WithLabelValues(class).Inc()
}

func (m *Metrics) AddExported(sink string, n int) {
	m.RecordsExported.WithLabelValues(sink).Add(float64(n))
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps all metrics in the text exposition format, for the
// node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
