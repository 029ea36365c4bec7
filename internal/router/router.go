// Package router maps quality profiles to extraction method decisions: the
// document-level route (which engine and preprocessing flags to use) and
// the per-page route (whether a given page needs OCR at all).
package router

import (
	"fmt"

	"github.com/lexseg/lexseg/internal/pipeline"
)

// PageOCRStandardReadabilityFloor is the per-page readability cutoff (§4.5)
// at or above which a degraded page still only needs ocr-standard rather than
// ocr-enhanced.
const PageOCRStandardReadabilityFloor = 40.0

// RouteDocument implements the §4.5 document-level route table: descending
// readability bands pick a method/engine/preprocessing combination, with
// orientation and skew findings adding extra preprocessing flags.
func RouteDocument(file string, doc pipeline.DocumentProfile, orientationAbnormal, skewDetected bool) pipeline.RouteDecision {
	r := pipeline.RouteDecision{
		File:             file,
		QualityTier:      doc.QualityTier,
		ReadabilityScore: doc.ReadabilityMed,
	}

	switch {
	case doc.HasTextLayer && doc.ReadabilityMed >= 80:
		r.Method = pipeline.MethodFastParse
		r.Engine = "pdf-parse"
		r.Rationale = "text layer present and readability >= 80"
	case doc.HasTextLayer && doc.ReadabilityMed >= 60:
		r.Method = pipeline.MethodFastParse
		r.Engine = "pdf-parse"
		r.Rationale = "text layer present and readability >= 60"
	case doc.ReadabilityMed >= 60:
		r.Method = pipeline.MethodOCRStandard
		r.Engine = "tesseract"
		r.Preprocessing = []string{"deskew"}
		r.Rationale = "no usable text layer, readability >= 60"
	case doc.ReadabilityMed >= 40:
		r.Method = pipeline.MethodOCREnhanced
		r.Engine = "tesseract"
		r.Preprocessing = []string{"deskew", "denoise"}
		r.Rationale = "readability >= 40, escalating to enhanced OCR"
	case doc.ReadabilityMed >= 20:
		r.Method = pipeline.MethodOCREnhanced
		r.Engine = "tesseract"
		r.Preprocessing = []string{"deskew", "denoise", "contrast-enhance", "binarize"}
		r.Rationale = "readability >= 20, full enhanced preprocessing chain"
	default:
		r.Method = pipeline.MethodManualReview
		r.Rationale = "readability below all automated thresholds"
	}

	if orientationAbnormal {
		r.Preprocessing = addFlag(r.Preprocessing, "auto-rotate")
	}
	if skewDetected {
		r.Preprocessing = addFlag(r.Preprocessing, "deskew")
	}
	return r
}

func addFlag(flags []string, flag string) []string {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}

// RoutePage implements the §4.5 per-page route table.
func RoutePage(p pipeline.PageProfile, ocrStandardReadabilityFloor float64) pipeline.PageRoute {
	switch {
	case p.Empty:
		return pipeline.PageRoute{
			Page:   p.PageNumber,
			Method: pipeline.MethodSkip,
			Reason: "page has no extractable text",
		}
	case !p.IsDegraded:
		return pipeline.PageRoute{
			Page:   p.PageNumber,
			Method: pipeline.MethodFastParse,
			Reason: "page is not degraded, fast-parse text is trustworthy",
		}
	case p.ReadabilityScore >= ocrStandardReadabilityFloor:
		return pipeline.PageRoute{
			Page:     p.PageNumber,
			Method:   pipeline.MethodOCRStandard,
			NeedsOCR: true,
			Reason:   fmt.Sprintf("degraded page with readability %.1f >= %.1f", p.ReadabilityScore, ocrStandardReadabilityFloor),
		}
	default:
		return pipeline.PageRoute{
			Page:     p.PageNumber,
			Method:   pipeline.MethodOCREnhanced,
			NeedsOCR: true,
			Reason:   fmt.Sprintf("degraded page with readability %.1f below %.1f, needs enhanced OCR", p.ReadabilityScore, ocrStandardReadabilityFloor),
		}
	}
}

// RoutePages routes every page in a DocumentProfile.
func RoutePages(doc pipeline.DocumentProfile, ocrStandardReadabilityFloor float64) []pipeline.PageRoute {
	routes := make([]pipeline.PageRoute, 0, len(doc.PageProfiles))
	for _, p := range doc.PageProfiles {
		routes = append(routes, RoutePage(p, ocrStandardReadabilityFloor))
	}
	return routes
}
