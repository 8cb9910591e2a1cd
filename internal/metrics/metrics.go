// Package metrics provides Prometheus metrics for PDF imports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import results used as the "result" label
const (
	ResultSuccess         = "success"
	ResultExtractionError = "extraction_error"
	ResultRejected        = "rejected"
	ResultError           = "error"
)

var (
	// ImportsTotal counts import attempts.
	// Labels: result (success, extraction_error, rejected, error)
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdf_contacts",
			Subsystem: "import",
			Name:      "imports_total",
			Help:      "Total number of PDF import attempts by result",
		},
		[]string{"result"},
	)

	// EmailsExtracted counts addresses found in imported documents
	EmailsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdf_contacts",
			Subsystem: "import",
			Name:      "emails_extracted_total",
			Help:      "Total number of email addresses extracted from documents",
		},
	)

	// EmailsStored counts addresses that were new and got stored
	EmailsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdf_contacts",
			Subsystem: "import",
			Name:      "emails_stored_total",
			Help:      "Total number of previously unknown email addresses stored",
		},
	)

	// EmailsRejected counts reconstructed candidates dropped by validation
	EmailsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdf_contacts",
			Subsystem: "import",
			Name:      "candidates_rejected_total",
			Help:      "Total number of reconstructed candidates rejected by the validator",
		},
	)

	// ImportDuration tracks how long a full import takes
	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdf_contacts",
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of PDF imports in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// RecordImport updates the counters for one finished import
func RecordImport(result string, extracted, stored int) {
	ImportsTotal.WithLabelValues(result).Inc()
	EmailsExtracted.Add(float64(extracted))
	EmailsStored.Add(float64(stored))
}
