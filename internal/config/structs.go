//nolint:lll
package config

// Config represents the complete configuration for the lexseg pipeline.
// It controls every stage threshold named in the configuration record, plus
// the ambient CLI/logging/server settings, and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose"   yaml:"verbose"   json:"verbose"`

	// Thresholds is the single configuration record named in Design Notes.
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds" json:"thresholds"`

	// Capability configures the external-tool capability layer.
	Capability CapabilityConfig `mapstructure:"capability" yaml:"capability" json:"capability"`

	// Output controls where pipeline artifacts are written.
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch controls multi-PDF batch behavior.
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Server controls the optional progress/metrics HTTP server.
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// ThresholdsConfig enumerates every numeric constant that the design notes
// require be explicit rather than scattered as literals through the stages.
type ThresholdsConfig struct {
	// ReadabilityTierThresholds holds the descending cutoffs for tiers A,B,C,D
	// (a score below the last cutoff falls into tier F).
	ReadabilityTierThresholds []float64 `mapstructure:"readability_tier_thresholds" yaml:"readability_tier_thresholds" json:"readability_tier_thresholds"`

	// DegradedRatioPropagate is the fraction of non-empty pages that must be
	// individually degraded before the document as a whole is flagged degraded.
	DegradedRatioPropagate float64 `mapstructure:"degraded_ratio_propagate" yaml:"degraded_ratio_propagate" json:"degraded_ratio_propagate"`

	// RepetitiveThreshold is the fraction-of-pages at or above which a line
	// fingerprint is treated as a recurring header/footer.
	RepetitiveThreshold float64 `mapstructure:"repetitive_threshold" yaml:"repetitive_threshold" json:"repetitive_threshold"`

	// HeaderLines/FooterLines bound how many leading/trailing lines per page
	// are fingerprinted when detecting repetitive chrome.
	HeaderLines int `mapstructure:"header_lines" yaml:"header_lines" json:"header_lines"`
	FooterLines int `mapstructure:"footer_lines" yaml:"footer_lines" json:"footer_lines"`

	// OCRDPIStandard/OCRDPIEnhanced set the rasterization resolution for the
	// standard and enhanced OCR attempts.
	OCRDPIStandard int `mapstructure:"ocr_dpi_standard" yaml:"ocr_dpi_standard" json:"ocr_dpi_standard"`
	OCRDPIEnhanced int `mapstructure:"ocr_dpi_enhanced" yaml:"ocr_dpi_enhanced" json:"ocr_dpi_enhanced"`

	// ExtractionFallbackConfidence is the confidence floor below which the
	// extraction fallback chain advances to the next method.
	ExtractionFallbackConfidence float64 `mapstructure:"extraction_fallback_confidence" yaml:"extraction_fallback_confidence" json:"extraction_fallback_confidence"`

	// RotationGarbageGate/RotationEarlyExit bound the rotation-retry loop:
	// a garbage score at or above the gate triggers a retry; a score below
	// the exit value stops the loop early.
	RotationGarbageGate float64 `mapstructure:"rotation_garbage_gate" yaml:"rotation_garbage_gate" json:"rotation_garbage_gate"`
	RotationEarlyExit   float64 `mapstructure:"rotation_early_exit" yaml:"rotation_early_exit" json:"rotation_early_exit"`

	// GarbagePenaltyThreshold/GarbagePenaltyConfidence: when the hybrid-chosen
	// page's garbage score is above the threshold, its confidence is
	// clamped down to the configured value.
	GarbagePenaltyThreshold  float64 `mapstructure:"garbage_penalty_threshold" yaml:"garbage_penalty_threshold" json:"garbage_penalty_threshold"`
	GarbagePenaltyConfidence float64 `mapstructure:"garbage_penalty_confidence" yaml:"garbage_penalty_confidence" json:"garbage_penalty_confidence"`

	// DegradedReadabilityBelow/DegradedGarbageAtOrAbove/DegradedMinCharCount
	// are the configurable per-page conditions that set is_degraded; a page
	// whose noise level is not low is also degraded.
	DegradedReadabilityBelow float64 `mapstructure:"degraded_readability_below" yaml:"degraded_readability_below" json:"degraded_readability_below"`
	DegradedGarbageAtOrAbove float64 `mapstructure:"degraded_garbage_at_or_above" yaml:"degraded_garbage_at_or_above" json:"degraded_garbage_at_or_above"`
	DegradedMinCharCount     int     `mapstructure:"degraded_min_char_count" yaml:"degraded_min_char_count" json:"degraded_min_char_count"`

	// EmptyPageMinChars is loaded and validated but not read by any stage;
	// the segmenter's blank-page check uses its own fixed 30-character cutoff.
	EmptyPageMinChars int `mapstructure:"empty_page_min_chars" yaml:"empty_page_min_chars" json:"empty_page_min_chars"`

	// SegmentBoundaryWeight is loaded and validated but not read by the
	// segmenter, which opens a new segment at a fixed marker weight of 0.7.
	SegmentBoundaryWeight float64 `mapstructure:"segment_boundary_weight" yaml:"segment_boundary_weight" json:"segment_boundary_weight"`

	// ProfilerFallbackMinConfidence gates the segmenter's fallback to the
	// profiler's page-type guess when the classifier is unconfident.
	ProfilerFallbackMinConfidence float64 `mapstructure:"profiler_fallback_min_confidence" yaml:"profiler_fallback_min_confidence" json:"profiler_fallback_min_confidence"`

	// SegmentL1OverrideMinConfidence is the confidence floor for a per-segment
	// L1 pass to override the page-level classification it inherited.
	SegmentL1OverrideMinConfidence float64 `mapstructure:"segment_l1_override_min_confidence" yaml:"segment_l1_override_min_confidence" json:"segment_l1_override_min_confidence"`

	// L2FallbackConfidenceFloor is loaded and validated but not read: L2
	// reclassification tries the secondary type below a fixed confidence of 0.5.
	L2FallbackConfidenceFloor float64 `mapstructure:"l2_fallback_confidence_floor" yaml:"l2_fallback_confidence_floor" json:"l2_fallback_confidence_floor"`

	// QCExtractionConfidenceFlag/QCSegmentationConfidenceFlag/QCMinBodyChars
	// drive the QC validator's low-confidence and empty-content rules.
	QCExtractionConfidenceFlag   float64 `mapstructure:"qc_extraction_confidence_flag" yaml:"qc_extraction_confidence_flag" json:"qc_extraction_confidence_flag"`
	QCSegmentationConfidenceFlag float64 `mapstructure:"qc_segmentation_confidence_flag" yaml:"qc_segmentation_confidence_flag" json:"qc_segmentation_confidence_flag"`
	QCMinBodyChars               int     `mapstructure:"qc_min_body_chars" yaml:"qc_min_body_chars" json:"qc_min_body_chars"`

	// Per-invocation timeouts for each capability call.
	TextExtractTimeoutSec int `mapstructure:"text_extract_timeout_sec" yaml:"text_extract_timeout_sec" json:"text_extract_timeout_sec"`
	RasterizeTimeoutSec   int `mapstructure:"rasterize_timeout_sec" yaml:"rasterize_timeout_sec" json:"rasterize_timeout_sec"`
	OCRTimeoutSec         int `mapstructure:"ocr_timeout_sec" yaml:"ocr_timeout_sec" json:"ocr_timeout_sec"`
	RotateTimeoutSec      int `mapstructure:"rotate_timeout_sec" yaml:"rotate_timeout_sec" json:"rotate_timeout_sec"`
}

// CapabilityConfig names, or overrides the discovery of, the external
// binaries this system treats as capability providers.
type CapabilityConfig struct {
	PdftotextPath string `mapstructure:"pdftotext_path" yaml:"pdftotext_path" json:"pdftotext_path"`
	PdftoppmPath  string `mapstructure:"pdftoppm_path"  yaml:"pdftoppm_path"  json:"pdftoppm_path"`
	TesseractPath string `mapstructure:"tesseract_path" yaml:"tesseract_path" json:"tesseract_path"`
	SipsPath      string `mapstructure:"sips_path"      yaml:"sips_path"      json:"sips_path"`
	ConvertPath   string `mapstructure:"convert_path"   yaml:"convert_path"   json:"convert_path"`
	OCRLanguage   string `mapstructure:"ocr_language"   yaml:"ocr_language"   json:"ocr_language"`

	// OCRPageSegMode is tesseract's --psm argument: 3 (fully automatic page
	// segmentation, the default) or 6 (assume a single uniform block of
	// text), per §6.
	OCRPageSegMode int `mapstructure:"ocr_page_seg_mode" yaml:"ocr_page_seg_mode" json:"ocr_page_seg_mode"`
}

// OutputConfig controls where pipeline artifacts are written.
type OutputConfig struct {
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir" json:"base_dir"`
}

// BatchConfig controls multi-PDF batch behavior.
type BatchConfig struct {
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	DedupEnabled    bool `mapstructure:"dedup_enabled"     yaml:"dedup_enabled"     json:"dedup_enabled"`
	RecursiveScan   bool `mapstructure:"recursive_scan"    yaml:"recursive_scan"    json:"recursive_scan"`
}

// ServerConfig controls the optional progress/metrics HTTP server started by
// `lexseg serve`.
type ServerConfig struct {
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
}
