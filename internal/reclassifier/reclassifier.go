// Package reclassifier runs the two contextual reclassification sub-stages
// that follow segmentation: a per-segment re-run of the L1 classifier
// (stage 5.5), and a positional/contextual L2 pass that boosts or
// penalizes a segment's type based on its predecessor and the document's
// own classification (stage 5.6).
package reclassifier

import (
	"strings"

	"github.com/lexseg/lexseg/internal/classifier"
	"github.com/lexseg/lexseg/internal/pipeline"
)

// RerunL1 re-runs the whitelist classifier on each non-separator segment's
// own text and overrides doc_type when the new primary type is confident
// enough to trust over whatever boundary rules or profiler fallback
// produced it.
func RerunL1(segments []pipeline.Segment, segmentText func(pipeline.Segment) string, overrideMinConfidence float64) []pipeline.Segment {
	out := make([]pipeline.Segment, len(segments))
	copy(out, segments)
	for i := range out {
		if out[i].Type == pipeline.SegmentSeparator {
			continue
		}
		c := classifier.Classify(segmentText(out[i]))
		if c.PrimaryType != "" && c.PrimaryType != "unknown" && c.Confidence >= overrideMinConfidence {
			out[i].DocType = c.PrimaryType
			out[i].ClassificationSource = pipeline.SourcePerSegmentL1
			out[i].ClassificationConfidence = c.Confidence
			out[i].ClassificationIndicators = c.Indicators
			out[i].SecondaryType = c.SecondaryType
			out[i].SecondaryConfidence = c.SecondaryConfidence
		}
	}
	return out
}

// transitions maps a predecessor type to the set of probable successor
// types, per §4.7's fixed transitions table.
var transitions = map[string][]string{
	"sentenca":          {"edcl", "apelacao", "sentenca-edcl", "certidao-publicacao"},
	"acordao":           {"edcl", "agravo-interno", "certidao-publicacao", "execucao-julgado"},
	"despacho":          {"certidao", "peticao-intermediaria", "manifestacao"},
	"decisao":           {"agravo-instrumento", "peticao-intermediaria", "certidao"},
	"peticao-inicial":   {"despacho", "decisao", "certidao-citacao", "contestacao"},
	"inicial-eef":       {"despacho", "decisao", "certidao-citacao", "embargos-execucao"},
	"inicial-execfiscal": {"despacho", "decisao", "certidao-citacao"},
	"contestacao":       {"replica", "despacho", "decisao"},
}

// initiatorTypes are document-opening types that should not plausibly
// appear mid-document right after an unrelated type.
var initiatorTypes = map[string]bool{
	"peticao-inicial":     true,
	"inicial-eef":         true,
	"inicial-execfiscal":  true,
}

// responseTypes are types that presuppose something already happened
// earlier in the document, so seeing one at index 0 is a negative signal.
var responseTypes = map[string]bool{
	"impugnacao":    true,
	"contestacao":   true,
	"contrarrazoes": true,
	"replica":       true,
	"embargos-execucao": true,
}

const (
	successorBoost          = 0.15
	impossibleInitiatorPenalty = -0.20
	initiatorAtStartBoost   = 0.10
	responseAtStartPenalty  = -0.15
	duplicateInicialPenalty = -0.25
	pdfAgreementEEFBoost    = 0.05
	pdfAgreementLowConfBoost = 0.10
)

// ApplyL2 runs the positional/contextual pass over an already L1-rerun
// segment list, comparing each segment against its previous non-separator
// segment and against the document-level PDF classification.
func ApplyL2(segments []pipeline.Segment, pdfClassification pipeline.Classification) []pipeline.Segment {
	out := make([]pipeline.Segment, len(segments))
	copy(out, segments)

	seenInicial := false
	var prevType string
	prevSet := false

	for i := range out {
		if out[i].Type == pipeline.SegmentSeparator {
			continue
		}
		if out[i].DocType == "" || out[i].DocType == "unknown" {
			prevType, prevSet = out[i].DocType, true
			continue
		}

		// Already boosted by a prior ApplyL2 pass: re-running the boost off
		// the already-adjusted confidence would stack it, so just fold this
		// segment's existing type into the positional context and move on.
		if out[i].CascadeLevel == 2 {
			finalType := out[i].DocType
			if strings.HasPrefix(finalType, "inicial-") || finalType == "peticao-inicial" {
				seenInicial = true
			}
			prevType, prevSet = finalType, true
			continue
		}

		if pdfImpliesEEF(pdfClassification) && out[i].DocType == "inicial-execfiscal" {
			out[i].DocType = "inicial-eef"
		}

		original := out[i].ClassificationConfidence
		primaryType := out[i].DocType
		boost, reasons := positionalBoost(primaryType, prevSet, prevType, seenInicial, pdfClassification)
		adjusted := clamp01(original + boost)

		finalType, finalConfidence, finalBoost, finalReasons := primaryType, adjusted, boost, reasons

		if adjusted < 0.5 && adjusted < original && out[i].SecondaryType != "" {
			secBoost, secReasons := positionalBoost(out[i].SecondaryType, prevSet, prevType, seenInicial, pdfClassification)
			secAdjusted := clamp01(out[i].SecondaryConfidence + secBoost)
			if secAdjusted > adjusted {
				finalType, finalConfidence, finalBoost, finalReasons = out[i].SecondaryType, secAdjusted, secBoost, secReasons
			}
		}

		out[i].L2PreviousType = primaryType
		out[i].DocType = finalType
		out[i].ClassificationConfidence = finalConfidence
		out[i].L2Boost = finalBoost
		out[i].L2Reasons = finalReasons
		out[i].CascadeLevel = 2
		if len(finalReasons) > 0 {
			out[i].ClassificationSource = pipeline.SourcePerSegmentL2
		}

		if strings.HasPrefix(finalType, "inicial-") || finalType == "peticao-inicial" {
			seenInicial = true
		}
		prevType, prevSet = finalType, true
	}

	return out
}

// positionalBoost computes the §4.7 stage 5.6 boost/penalty for a candidate
// type given the previous non-separator segment's type, whether this is
// the first classified segment, whether an inicial-* type has already
// appeared, and the document-level PDF classification.
func positionalBoost(candidate string, prevSet bool, prevType string, seenInicial bool, pdfClassification pipeline.Classification) (float64, []string) {
	boost := 0.0
	var reasons []string

	if prevSet && prevType != "" && prevType != "unknown" {
		if isProbableSuccessor(prevType, candidate) {
			boost += successorBoost
			reasons = append(reasons, "probable successor of "+prevType)
		} else if initiatorTypes[candidate] {
			boost += impossibleInitiatorPenalty
			reasons = append(reasons, "impossible initiator after "+prevType)
		}
	} else if !prevSet {
		if initiatorTypes[candidate] {
			boost += initiatorAtStartBoost
			reasons = append(reasons, "initiator type at index 0")
		} else if responseTypes[candidate] {
			boost += responseAtStartPenalty
			reasons = append(reasons, "response type at index 0")
		}
	}

	if strings.HasPrefix(candidate, "inicial-") || candidate == "peticao-inicial" {
		if seenInicial {
			boost += duplicateInicialPenalty
			reasons = append(reasons, "duplicate inicial-* in document")
		}
	}

	if pdfClassification.PrimaryType != "" {
		if candidate == "inicial-eef" && pdfClassification.PrimaryType == "inicial-eef" {
			boost += pdfAgreementEEFBoost
			reasons = append(reasons, "agrees with PDF classification inicial-eef")
		}
		if candidate == pdfClassification.PrimaryType && pdfClassification.Confidence < 0.8 {
			boost += pdfAgreementLowConfBoost
			reasons = append(reasons, "agrees with low-confidence PDF classification")
		}
	}

	return boost, reasons
}

func isProbableSuccessor(predecessor, candidate string) bool {
	for _, t := range transitions[predecessor] {
		if t == candidate {
			return true
		}
	}
	return false
}

// pdfImpliesEEF reports whether the document-level PDF classification
// strongly implies a fiscal-execution initial petition.
func pdfImpliesEEF(pdfClassification pipeline.Classification) bool {
	return pdfClassification.PrimaryType == "inicial-eef" && pdfClassification.Confidence >= 0.5
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
