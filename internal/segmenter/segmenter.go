// Package segmenter detects page boundaries between procedural pieces and
// groups consecutive pages into Segments. Boundary detection runs on the
// heading-only text of each page; a numbered-paragraph continuation across
// a page break suppresses weak boundaries so mid-paragraph page breaks do
// not fragment a single piece.
package segmenter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lexseg/lexseg/internal/pipeline"
)

const segmenterHeadingLines = 3 // fewer than the classifier's 5 (§9 asymmetry, intentional)

// boundaryRule is one of the ten §4.6 heading markers.
type boundaryRule struct {
	Name    string
	Pattern *regexp.Regexp
	Weight  float64
	Type    string // rule-to-type table entry; "" means no direct type inference
}

var boundaryRules = []boundaryRule{
	{"court-header", regexp.MustCompile(`(?i)excelent[ií]ssimo|tribunal (regional|de justiça)|vara federal|vara do trabalho`), 0.65, ""},
	{"petition-opening-full", regexp.MustCompile(`(?i)excelent[ií]ssimo.{0,40}ju[ií]z.{0,60}vem`), 0.85, "peticao-inicial"},
	{"petition-opening-abbrev", regexp.MustCompile(`(?i)exmo\.?\s*ju[ií]z`), 0.75, "peticao-inicial"},
	{"sentenca", regexp.MustCompile(`(?im)^\s*sentença\s*$`), 0.90, "sentenca"},
	{"acordao", regexp.MustCompile(`(?im)^\s*acórdão\s*$`), 0.90, "acordao"},
	{"certidao", regexp.MustCompile(`(?i)certidão.{0,30}certifico`), 0.75, "certidao"},
	{"attachment-label", regexp.MustCompile(`(?i)^\s*(anexo|documento)\b`), 0.70, ""},
	{"exhibit-label", regexp.MustCompile(`(?i)^\s*exibição\b`), 0.70, ""},
	{"cnj-process-number", regexp.MustCompile(`\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}`), 0.65, ""},
	{"despacho", regexp.MustCompile(`(?im)^\s*despacho\s*$`), 0.80, "despacho"},
	{"decisao", regexp.MustCompile(`(?im)^\s*decisão\s*(interlocutória)?\s*$`), 0.80, "decisao"},
	{"oficio", regexp.MustCompile(`(?i)^\s*ofício\s*n`), 0.75, "oficio"},
}

const blankPageWeightName = "blank-page"
const blankPageMinChars = 30
const boundaryWeightFloor = 0.7
const continuationSuppressFloor = 0.85

var numberedParagraphRe = regexp.MustCompile(`^\s*(\d{1,3})[.)\-]\s`)

type pageMarker struct {
	Name   string
	Weight float64
	Type   string
}

// detectPageMarkers evaluates every boundary rule against the page's
// heading-only text (first segmenterHeadingLines meaningful lines after
// PJe-block stripping) plus the full-text blank-page check.
func detectPageMarkers(pageText string) []pageMarker {
	var markers []pageMarker
	if len([]rune(strings.TrimSpace(pageText))) < blankPageMinChars {
		markers = append(markers, pageMarker{Name: blankPageWeightName, Weight: 1.0})
	}

	heading := headingOnly(pageText, segmenterHeadingLines)
	for _, r := range boundaryRules {
		if r.Pattern.MatchString(heading) {
			markers = append(markers, pageMarker{Name: r.Name, Weight: r.Weight, Type: r.Type})
		}
	}
	return markers
}

func headingOnly(text string, n int) string {
	stripped := stripPJeBlock(text, n)
	var meaningful []string
	for _, l := range strings.Split(stripped, "\n") {
		t := strings.TrimSpace(l)
		if len(t) >= 3 {
			meaningful = append(meaningful, t)
		}
		if len(meaningful) >= n {
			break
		}
	}
	return strings.Join(meaningful, "\n")
}

var pjeHeadingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)processo judicial eletrônico`),
	regexp.MustCompile(`(?i)num\.\s*\d+\s*-\s*p[aá]g`),
}

func stripPJeBlock(text string, headingLines int) string {
	lines := strings.Split(text, "\n")
	limit := headingLines
	if limit > len(lines) {
		limit = len(lines)
	}
	var kept []string
	for i, l := range lines {
		if i < limit {
			matched := false
			for _, p := range pjeHeadingPatterns {
				if p.MatchString(l) {
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

func hasNonBlankBoundary(markers []pageMarker, minWeight float64) (pageMarker, bool) {
	var best pageMarker
	found := false
	for _, m := range markers {
		if m.Name == blankPageWeightName {
			continue
		}
		if m.Weight < minWeight {
			continue
		}
		if !found || m.Weight > best.Weight {
			best = m
			found = true
		}
	}
	return best, found
}

func endsWithNumberedParagraph(text string) (int, bool) {
	lines := nonTrivialLines(text)
	window := lines
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	for i := len(window) - 1; i >= 0; i-- {
		if m := numberedParagraphRe.FindStringSubmatch(window[i]); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func startsWithNumberedParagraph(text string, want int) bool {
	lines := nonTrivialLines(text)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, l := range lines {
		if m := numberedParagraphRe.FindStringSubmatch(l); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n == want {
				return true
			}
		}
	}
	return false
}

func nonTrivialLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		t := strings.TrimSpace(l)
		if len(t) >= 3 {
			out = append(out, t)
		}
	}
	return out
}

// Segment groups pages into contiguous procedural pieces according to the
// §4.6 boundary rules, with paragraph-continuation suppression and blank-
// page grouping, and infers each segment's doc_type from its strongest
// boundary marker, falling back to the document-level classification.
func Segment(pages []pipeline.Page, docClassification pipeline.Classification, profilerFallbackMinConfidence float64) []pipeline.Segment {
	if len(pages) == 0 {
		return nil
	}

	type pageDecision struct {
		page      pipeline.Page
		markers   []pageMarker
		isNewOpen bool
	}

	decisions := make([]pageDecision, len(pages))
	for i, p := range pages {
		decisions[i] = pageDecision{page: p, markers: detectPageMarkers(p.Text)}
	}

	for i := range decisions {
		best, found := hasNonBlankBoundary(decisions[i].markers, boundaryWeightFloor)
		if !found {
			continue
		}
		decisions[i].isNewOpen = true

		if i == 0 {
			continue
		}
		if best.Weight >= continuationSuppressFloor {
			continue // structural headers always win
		}
		prevNum, prevHas := endsWithNumberedParagraph(decisions[i-1].page.Text)
		if prevHas && startsWithNumberedParagraph(decisions[i].page.Text, prevNum+1) {
			decisions[i].isNewOpen = false
		}
	}

	var segments []pipeline.Segment
	var current *segmentBuilder
	segIndex := 0

	for _, d := range decisions {
		pageNum := d.page.PageNumber
		if current == nil || d.isNewOpen {
			if current != nil {
				segments = append(segments, current.build())
			}
			segIndex++
			current = newSegmentBuilder(segIndex, pageNum, d)
			continue
		}
		current.extend(pageNum, d.markers)
	}
	if current != nil {
		segments = append(segments, current.build())
	}

	for i := range segments {
		if segments[i].Type == pipeline.SegmentSeparator {
			segments[i].DocType = "unknown"
			continue
		}
		inferType(&segments[i], docClassification, profilerFallbackMinConfidence)
	}
	return segments
}

type segmentBuilder struct {
	index      int
	pageStart  int
	pageEnd    int
	markers    []string
	bestW      float64
	pages      int
	blankPages int
}

func newSegmentBuilder(index, page int, d struct {
	page      pipeline.Page
	markers   []pageMarker
	isNewOpen bool
}) *segmentBuilder {
	b := &segmentBuilder{index: index, pageStart: page, pageEnd: page}
	b.extend(page, d.markers)
	return b
}

func (b *segmentBuilder) extend(page int, markers []pageMarker) {
	b.pageEnd = page
	b.pages++
	blank := false
	for _, m := range markers {
		b.markers = append(b.markers, m.Name)
		if m.Name == blankPageWeightName {
			blank = true
			continue
		}
		if m.Weight > b.bestW {
			b.bestW = m.Weight
		}
	}
	if blank {
		b.blankPages++
	}
}

func (b *segmentBuilder) build() pipeline.Segment {
	segType := segmentTypeFromMarkers(b.markers)
	if b.blankPages == b.pages {
		segType = pipeline.SegmentSeparator
	}
	return pipeline.Segment{
		SegmentID:       fmt.Sprintf("seg-%03d", b.index),
		Type:            segType,
		PageStart:       b.pageStart,
		PageEnd:         b.pageEnd,
		BoundaryMarkers: dedupe(b.markers),
		Confidence:      b.bestW,
	}
}

// segmentTypeFromMarkers reports the piece/attachment/exhibit segment type
// implied by the opening page's boundary markers; every other opening
// defaults to an ordinary piece.
func segmentTypeFromMarkers(markers []string) pipeline.SegmentType {
	for _, m := range markers {
		switch m {
		case "attachment-label":
			return pipeline.SegmentAttachment
		case "exhibit-label":
			return pipeline.SegmentExhibit
		}
	}
	return pipeline.SegmentPiece
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// inferType assigns doc_type from the segment's highest-weight marker that
// carries a type; if none does ("unknown") and the document classifier is
// confident enough, falls back to the document-level classification.
func inferType(seg *pipeline.Segment, docClassification pipeline.Classification, profilerFallbackMinConfidence float64) {
	best := ""
	bestW := 0.0
	for _, name := range seg.BoundaryMarkers {
		for _, r := range boundaryRules {
			if r.Name == name && r.Type != "" && r.Weight > bestW {
				best = r.Type
				bestW = r.Weight
			}
		}
	}
	if best != "" {
		seg.DocType = best
		seg.ClassificationSource = pipeline.SourceBoundaryRules
		return
	}

	if docClassification.PrimaryType != "" && docClassification.PrimaryType != "unknown" &&
		docClassification.Confidence >= profilerFallbackMinConfidence {
		seg.DocType = docClassification.PrimaryType
		seg.ClassificationSource = pipeline.SourceProfilerFallback
		seg.ClassificationConfidence = docClassification.Confidence
		return
	}
	seg.DocType = "unknown"
	seg.ClassificationSource = pipeline.SourceProfilerFallback
}

// CheckCoverage verifies every page 1..pageCount lies in some segment's
// range, logging (returning) orphan pages as warnings rather than failing:
// coverage gaps are a warning, not an error. Separator segments (blank-only
// runs) still count as coverage here; they're excluded from classification,
// not from the page range.
func CheckCoverage(segments []pipeline.Segment, pageCount int) (orphans []int) {
	covered := make([]bool, pageCount+1)
	for _, s := range segments {
		for p := s.PageStart; p <= s.PageEnd && p <= pageCount; p++ {
			covered[p] = true
		}
	}
	for p := 1; p <= pageCount; p++ {
		if !covered[p] {
			orphans = append(orphans, p)
		}
	}
	return orphans
}
