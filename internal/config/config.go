package config

import (
	"fmt"
	"strings"
)

// DefaultConfig returns a configuration with sensible defaults, matching the
// values named in the Design Notes configuration record.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Thresholds: ThresholdsConfig{
			ReadabilityTierThresholds:     []float64{80, 60, 40, 20},
			DegradedRatioPropagate:        0.5,
			RepetitiveThreshold:           0.4,
			HeaderLines:                   12,
			FooterLines:                   8,
			OCRDPIStandard:                300,
			OCRDPIEnhanced:                400,
			ExtractionFallbackConfidence:  0.6,
			RotationGarbageGate:           0.4,
			RotationEarlyExit:             0.2,
			GarbagePenaltyThreshold:       0.3,
			GarbagePenaltyConfidence:      0.4,
			DegradedReadabilityBelow:      60,
			DegradedGarbageAtOrAbove:      0.15,
			DegradedMinCharCount:          50,
			EmptyPageMinChars:             10,
			SegmentBoundaryWeight:         0.6,
			ProfilerFallbackMinConfidence: 0.5,
			SegmentL1OverrideMinConfidence: 0.55,
			L2FallbackConfidenceFloor:      0.5,
			QCExtractionConfidenceFlag:     0.5,
			QCSegmentationConfidenceFlag:   0.5,
			QCMinBodyChars:                 20,
			TextExtractTimeoutSec:          15,
			RasterizeTimeoutSec:            30,
			OCRTimeoutSec:                  60,
			RotateTimeoutSec:               10,
		},
		Capability: CapabilityConfig{
			OCRLanguage:    "por",
			OCRPageSegMode: 3,
		},
		Output: OutputConfig{
			BaseDir: "./output",
		},
		Batch: BatchConfig{
			ContinueOnError: true,
			DedupEnabled:    true,
			RecursiveScan:   true,
		},
		Server: ServerConfig{
			MetricsAddr: "",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	t := c.Thresholds
	if len(t.ReadabilityTierThresholds) != 4 {
		return fmt.Errorf("readability_tier_thresholds must have exactly 4 entries (A,B,C,D cutoffs), got %d", len(t.ReadabilityTierThresholds))
	}
	for i := 1; i < len(t.ReadabilityTierThresholds); i++ {
		if t.ReadabilityTierThresholds[i] >= t.ReadabilityTierThresholds[i-1] {
			return fmt.Errorf("readability_tier_thresholds must be strictly descending, got %v", t.ReadabilityTierThresholds)
		}
	}

	ratios := map[string]float64{
		"degraded_ratio_propagate":        t.DegradedRatioPropagate,
		"repetitive_threshold":            t.RepetitiveThreshold,
		"extraction_fallback_confidence":  t.ExtractionFallbackConfidence,
		"rotation_garbage_gate":           t.RotationGarbageGate,
		"rotation_early_exit":             t.RotationEarlyExit,
		"garbage_penalty_threshold":       t.GarbagePenaltyThreshold,
		"garbage_penalty_confidence":      t.GarbagePenaltyConfidence,
		"degraded_garbage_at_or_above":    t.DegradedGarbageAtOrAbove,
		"segment_boundary_weight":         t.SegmentBoundaryWeight,
		"profiler_fallback_min_confidence":   t.ProfilerFallbackMinConfidence,
		"segment_l1_override_min_confidence": t.SegmentL1OverrideMinConfidence,
		"l2_fallback_confidence_floor":       t.L2FallbackConfidenceFloor,
		"qc_extraction_confidence_flag":      t.QCExtractionConfidenceFlag,
		"qc_segmentation_confidence_flag":    t.QCSegmentationConfidenceFlag,
	}
	for name, v := range ratios {
		if err := validateThreshold(v, name); err != nil {
			return err
		}
	}

	if t.RotationEarlyExit >= t.RotationGarbageGate {
		return fmt.Errorf("rotation_early_exit (%.2f) must be below rotation_garbage_gate (%.2f)", t.RotationEarlyExit, t.RotationGarbageGate)
	}
	if t.HeaderLines <= 0 || t.FooterLines <= 0 {
		return fmt.Errorf("header_lines and footer_lines must be positive")
	}
	if t.OCRDPIStandard <= 0 || t.OCRDPIEnhanced <= 0 {
		return fmt.Errorf("ocr_dpi_standard and ocr_dpi_enhanced must be positive")
	}
	if t.OCRDPIEnhanced < t.OCRDPIStandard {
		return fmt.Errorf("ocr_dpi_enhanced (%d) must be at least ocr_dpi_standard (%d)", t.OCRDPIEnhanced, t.OCRDPIStandard)
	}
	for name, v := range map[string]int{
		"text_extract_timeout_sec": t.TextExtractTimeoutSec,
		"rasterize_timeout_sec":    t.RasterizeTimeoutSec,
		"ocr_timeout_sec":          t.OCRTimeoutSec,
		"rotate_timeout_sec":       t.RotateTimeoutSec,
		"qc_min_body_chars":        t.QCMinBodyChars,
		"empty_page_min_chars":     t.EmptyPageMinChars,
		"degraded_min_char_count":  t.DegradedMinCharCount,
	} {
		if v <= 0 {
			return fmt.Errorf("invalid %s: %d (must be positive)", name, v)
		}
	}

	if c.Server.MetricsAddr != "" && !strings.Contains(c.Server.MetricsAddr, ":") {
		return fmt.Errorf("invalid server.metrics_addr: %q (expected host:port)", c.Server.MetricsAddr)
	}

	if c.Capability.OCRPageSegMode != 3 && c.Capability.OCRPageSegMode != 6 {
		return fmt.Errorf("invalid capability.ocr_page_seg_mode: %d (must be 3 or 6)", c.Capability.OCRPageSegMode)
	}

	return nil
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
