// Package metrics declares the Prometheus collectors the orchestrator and
// the optional progress server update as a batch runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PDFsProcessedTotal counts completed per-PDF runs, labeled by outcome.
	PDFsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexseg_pdfs_processed_total",
			Help: "Total number of PDFs processed by the pipeline",
		},
		[]string{"outcome"}, // outcome: ok, review_needed, fatal
	)

	// StageDuration records how long each numbered stage took per PDF.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexseg_stage_duration_seconds",
			Help:    "Duration of a single pipeline stage for one PDF",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// OCRPagesTotal counts pages routed through OCR, labeled by engine tier.
	OCRPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexseg_ocr_pages_total",
			Help: "Total number of pages sent through OCR",
		},
		[]string{"engine"}, // engine: ocr-standard, ocr-enhanced
	)

	// SegmentsExportedTotal counts exported segments, labeled by doc type.
	SegmentsExportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexseg_segments_exported_total",
			Help: "Total number of Markdown segments exported",
		},
		[]string{"doc_type"},
	)

	// QCOutcomesTotal counts QC verdicts, labeled by status.
	QCOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexseg_qc_outcomes_total",
			Help: "Total number of QC verdicts by status",
		},
		[]string{"status"}, // status: passed, flagged, rejected
	)

	// BatchInProgress reports whether a batch run is currently active.
	BatchInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexseg_batch_in_progress",
			Help: "1 while a batch run is active, 0 otherwise",
		},
	)

	// WebsocketConnections tracks active progress-stream subscribers.
	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexseg_websocket_active_connections",
			Help: "Number of active progress WebSocket connections",
		},
	)
)

// ObserveQCReport folds per-PDF QC counts into the cumulative counters.
func ObserveQCReport(passed, flagged, rejected int) {
	QCOutcomesTotal.WithLabelValues("passed").Add(float64(passed))
	QCOutcomesTotal.WithLabelValues("flagged").Add(float64(flagged))
	QCOutcomesTotal.WithLabelValues("rejected").Add(float64(rejected))
}
