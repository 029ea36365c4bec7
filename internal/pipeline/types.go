// Package pipeline holds the data model entities shared across every
// pipeline stage: the structures the orchestrator owns transitively and
// passes from one stage to the next. Each entity is immutable after its
// producing stage completes, except Segment, which is decorated across the
// segmentation and reclassification stages.
package pipeline

import "time"

// SourceFile describes one PDF registered by intake.
type SourceFile struct {
	Name           string    `json:"name"`
	SourcePath     string    `json:"source_path"`
	Size           int64     `json:"size"`
	Modified       time.Time `json:"modified"`
	SHA256         string    `json:"sha256"`
	SHA256Prefix4K string    `json:"sha256_prefix_4k"`
	Timestamp      time.Time `json:"timestamp"`
}

// DuplicateEntry records a file whose full hash matched a previously
// registered SourceFile.
type DuplicateEntry struct {
	Name         string `json:"name"`
	SHA256       string `json:"sha256"`
	OriginalPath string `json:"original_path"`
}

// IntakeError records a non-fatal per-file I/O failure during intake.
type IntakeError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ManifestSummary is the rollup of an intake run.
type ManifestSummary struct {
	TotalScanned int `json:"total_scanned"`
	Registered   int `json:"registered"`
	Duplicates   int `json:"duplicates"`
	Errors       int `json:"errors"`
}

// Manifest is the persisted output of intake for one source (file or dir).
type Manifest struct {
	GeneratedAt time.Time         `json:"generated_at"`
	SourcePath  string            `json:"source_path"`
	Files       []SourceFile      `json:"files"`
	Duplicates  []DuplicateEntry  `json:"duplicates"`
	Errors      []IntakeError     `json:"errors"`
	Summary     ManifestSummary   `json:"summary"`
}

// Page is one page's extracted text plus extraction metadata.
type Page struct {
	PageNumber       int     `json:"page_number"`
	Text             string  `json:"text"`
	Confidence       float64 `json:"confidence"`
	Empty            bool    `json:"empty"`
	Method           string  `json:"method"`
	RotationApplied  int     `json:"rotation_applied,omitempty"`
	WordGarbageScore float64 `json:"word_garbage_score,omitempty"`
	OCRReplaced      bool    `json:"ocr_replaced,omitempty"`
	OCRFallbackToFP  bool    `json:"ocr_fallback_to_fp,omitempty"`
}

// NoiseLevel is the coarse per-page/document noise bucket.
type NoiseLevel string

const (
	NoiseLow    NoiseLevel = "low"
	NoiseMedium NoiseLevel = "medium"
	NoiseHigh   NoiseLevel = "high"
)

// QualityTier is the A-F readability bucket.
type QualityTier string

const (
	TierA QualityTier = "A"
	TierB QualityTier = "B"
	TierC QualityTier = "C"
	TierD QualityTier = "D"
	TierF QualityTier = "F"
)

// PageProfile is the per-page quality assessment produced by the profiler.
type PageProfile struct {
	PageNumber       int         `json:"page_number"`
	ReadabilityScore float64     `json:"readability_score"`
	NoiseLevel       NoiseLevel  `json:"noise_level"`
	WordGarbageScore float64     `json:"word_garbage_score"`
	QualityTier      QualityTier `json:"quality_tier"`
	CharCount        int         `json:"char_count"`
	IsDegraded       bool        `json:"is_degraded"`
	Empty            bool        `json:"empty"`
	Propagated       bool        `json:"propagated,omitempty"`
}

// DocumentProfile aggregates per-page profiles using the median readability.
type DocumentProfile struct {
	PageProfiles   []PageProfile `json:"page_profiles"`
	ReadabilityMed float64       `json:"readability_score"`
	QualityTier    QualityTier   `json:"quality_tier"`
	NoiseLevel     NoiseLevel    `json:"noise_level"`
	DegradedPages  []int         `json:"degraded_pages"`
	DegradedCount  int           `json:"degraded_count"`
	CleanCount     int           `json:"clean_count"`
	IsMixedQuality bool          `json:"is_mixed_quality"`
	HasTextLayer   bool           `json:"has_text_layer"`
}

// Classification is the L1/L2 classifier verdict for a document or segment.
type Classification struct {
	PrimaryType        string   `json:"primary_type"`
	Confidence         float64  `json:"confidence"`
	Indicators         []string `json:"indicators"`
	SecondaryType      string   `json:"secondary_type,omitempty"`
	SecondaryConfidence float64 `json:"secondary_confidence,omitempty"`
	Disambiguation     string   `json:"disambiguation,omitempty"`
	Reclassified       bool     `json:"reclassified,omitempty"`
}

// RouteMethod is the document-level routing decision.
type RouteMethod string

const (
	MethodFastParse    RouteMethod = "fast-parse"
	MethodOCRStandard  RouteMethod = "ocr-standard"
	MethodOCREnhanced  RouteMethod = "ocr-enhanced"
	MethodManualReview RouteMethod = "manual-review"
	MethodSkip         RouteMethod = "skip"
)

// RouteDecision is the document-level route produced by the router.
type RouteDecision struct {
	File             string      `json:"file"`
	Method           RouteMethod `json:"method"`
	Engine           string      `json:"engine"`
	Preprocessing    []string    `json:"preprocessing"`
	Rationale        string      `json:"rationale"`
	QualityTier      QualityTier `json:"quality_tier"`
	ReadabilityScore float64     `json:"readability_score"`
	RoutedAt         time.Time   `json:"routed_at"`
}

// PageRoute is the per-page routing decision.
type PageRoute struct {
	Page     int         `json:"page"`
	Method   RouteMethod `json:"method"`
	NeedsOCR bool        `json:"needs_ocr"`
	Reason   string      `json:"reason"`
}

// ExtractedDocument is the result of running the text extractor on one PDF.
type ExtractedDocument struct {
	Method            string          `json:"method"`
	Pages             []Page          `json:"pages"`
	OverallConfidence float64         `json:"overall_confidence"`
	FallbackTriggered bool            `json:"fallback_triggered"`
	OCRPages          []int           `json:"ocr_pages,omitempty"`
	OCRMethod         string          `json:"ocr_method,omitempty"`
	Classification    *Classification `json:"classification,omitempty"`
}

// SegmentType is the coarse kind of page-range unit.
type SegmentType string

const (
	SegmentPiece      SegmentType = "piece"
	SegmentAttachment SegmentType = "attachment"
	SegmentExhibit    SegmentType = "exhibit"
	SegmentCover      SegmentType = "cover"
	SegmentSeparator  SegmentType = "separator"
)

// ClassificationSource records which stage produced a segment's doc_type.
type ClassificationSource string

const (
	SourceBoundaryRules    ClassificationSource = "boundary-rules"
	SourceProfilerFallback ClassificationSource = "profiler-fallback"
	SourcePerSegmentL1     ClassificationSource = "per-segment-L1"
	SourcePerSegmentL2     ClassificationSource = "per-segment-L2"
)

// Segment is a contiguous page range representing one procedural piece.
type Segment struct {
	SegmentID                string               `json:"segment_id"`
	Type                     SegmentType          `json:"type"`
	DocType                  string               `json:"doc_type"`
	ClassificationSource     ClassificationSource `json:"classification_source"`
	PageStart                int                  `json:"page_start"`
	PageEnd                  int                  `json:"page_end"`
	Confidence               float64              `json:"confidence"`
	BoundaryMarkers          []string             `json:"boundary_markers"`
	ClassificationConfidence float64              `json:"classification_confidence,omitempty"`
	ClassificationIndicators []string             `json:"classification_indicators,omitempty"`
	SecondaryType            string               `json:"secondary_type,omitempty"`
	SecondaryConfidence      float64              `json:"secondary_confidence,omitempty"`
	L2PreviousType           string               `json:"l2_previous_type,omitempty"`
	L2Boost                  float64              `json:"l2_boost,omitempty"`
	L2Reasons                []string             `json:"l2_reasons,omitempty"`
	CascadeLevel             int                  `json:"cascade_level,omitempty"`
}

// StageStatus is the outcome recorded for a single checkpoint stage.
type StageStatus string

const (
	StageStatusOK     StageStatus = "ok"
	StageStatusFailed StageStatus = "failed"
)

// StageResult is the per-stage entry inside a Checkpoint.
type StageResult struct {
	Status     StageStatus `json:"status"`
	DurationMs int64       `json:"duration_ms"`
	OutputPath string      `json:"output_path,omitempty"`
}

// Checkpoint is the resumable progress record for one PDF's run.
type Checkpoint struct {
	PipelineVersion  string                 `json:"pipeline_version"`
	Source           string                 `json:"source"`
	StartedAt        time.Time              `json:"started_at"`
	CurrentStage     int                    `json:"current_stage"`
	CompletedStages  []int                  `json:"completed_stages"`
	StageResults     map[string]StageResult `json:"stage_results"`
	Checksum         string                 `json:"checksum"`
}

// PipelineReport is the compact per-PDF record persisted as pipeline-report.json.
type PipelineReport struct {
	Source              string         `json:"source"`
	PageCount           int            `json:"page_count"`
	IntakeRegistered    int            `json:"intake_registered"`
	IntakeDuplicates    int            `json:"intake_duplicates"`
	ProfileQualityTier  QualityTier    `json:"profile_quality_tier"`
	ProfileReadability  float64        `json:"profile_readability"`
	RouteMethod         RouteMethod    `json:"route_method"`
	ExtractMethod       string         `json:"extract_method"`
	ExtractConfidence   float64        `json:"extract_confidence"`
	OCRPages            []int          `json:"ocr_pages,omitempty"`
	SegmentCount        int            `json:"segment_count"`
	SegmentTypeCounts   map[string]int `json:"segment_type_counts"`
	ExportCount         int            `json:"export_count"`
	QCPassed            int            `json:"qc_passed"`
	QCFlagged           int            `json:"qc_flagged"`
	QCRejected          int            `json:"qc_rejected"`
	QCMislabelsCaught   int            `json:"qc_mislabels_caught"`
	Limitations         []string       `json:"limitations,omitempty"`
	ReviewNeeded        bool           `json:"review_needed"`
	ReviewReasons       []string       `json:"review_reasons,omitempty"`
}

// BatchSummary is the additive sum of QC counters across every PDF in a batch.
type BatchSummary struct {
	Passed          int `json:"passed"`
	Flagged         int `json:"flagged"`
	Rejected        int `json:"rejected"`
	MislabelsCaught int `json:"mislabels_caught"`
}

// BatchReport wraps every PipelineReport for a batch run.
type BatchReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Reports     []PipelineReport  `json:"reports"`
	Summary     BatchSummary      `json:"summary"`
}

// Add folds one PipelineReport's QC counters into the batch summary.
// The merge must be additive across every PDF, never "last wins".
func (s *BatchSummary) Add(r PipelineReport) {
	s.Passed += r.QCPassed
	s.Flagged += r.QCFlagged
	s.Rejected += r.QCRejected
	s.MislabelsCaught += r.QCMislabelsCaught
}
