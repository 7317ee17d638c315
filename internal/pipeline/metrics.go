package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the pipeline.
type Metrics struct {
	FilingsProcessed  *prometheus.CounterVec
	SectionsDetected  prometheus.Counter
	TablesNormalized  prometheus.Counter
	CellParseFailures prometheus.Counter
	UnmatchedHeadings prometheus.Counter
	CompileDuration   prometheus.Histogram
}

// NewMetrics registers the pipeline instruments with reg. A nil reg
// falls back to the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		FilingsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filingnotes",
			Name:      "filings_processed_total",
			Help:      "Filings processed, by final status.",
		}, []string{"status"}),
		SectionsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "filingnotes",
			Name:      "sections_detected_total",
			Help:      "Sections matched against a taxonomy.",
		}),
		TablesNormalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "filingnotes",
			Name:      "tables_normalized_total",
			Help:      "Tables normalized into typed cells.",
		}),
		CellParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "filingnotes",
			Name:      "cell_parse_failures_total",
			Help:      "Numeric-looking cells kept verbatim after a parse failure.",
		}),
		UnmatchedHeadings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "filingnotes",
			Name:      "unmatched_headings_total",
			Help:      "Headings that matched no taxonomy entry.",
		}),
		CompileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "filingnotes",
			Name:      "compile_duration_seconds",
			Help:      "Wall-clock time to compile one filing.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
