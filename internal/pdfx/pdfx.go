// Package pdfx implements the hybrid text extractor: fast vector-text
// parsing via the pdftotext capability (falling back to dslipak/pdf when
// that binary is absent), full/rotation-retry OCR via pdftoppm+tesseract,
// and the per-page arbitration that merges the two into one hybrid result.
package pdfx

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	dslipakpdf "github.com/dslipak/pdf"

	"github.com/lexseg/lexseg/internal/capability"
	"github.com/lexseg/lexseg/internal/pipeline"
	"github.com/lexseg/lexseg/internal/textquality"
)

const emptyPageCharThreshold = 50

// Extractor runs the three extraction modes described by the router.
type Extractor struct {
	Caps    capability.Set
	Timeout Timeouts
}

// Timeouts mirrors the per-invocation inline timeouts from the resource
// model: a timeout returns a failed-page stub, never an exception upward.
type Timeouts struct {
	TextExtractSec int
	RasterizeSec   int
	OCRSec         int
	RotateSec      int
}

// NewExtractor builds an Extractor bound to a resolved capability set.
func NewExtractor(caps capability.Set, t Timeouts) *Extractor {
	return &Extractor{Caps: caps, Timeout: t}
}

// PageCount returns the PDF's page count, preferring pdfinfo-free routes:
// it opens the file with dslipak/pdf, the same library the fallback parser
// already depends on, so no extra binary is required just to count pages.
func PageCount(pdfPath string) (int, error) {
	f, err := dslipakpdf.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("pdfx: open %q: %w", pdfPath, err)
	}
	return f.NumPage(), nil
}

// FastParsePerPage extracts text for every page using pdftotext, one page
// at a time. If pdftotext is unavailable, it falls back to a full-document
// parse via dslipak/pdf split by form-feed (or, failing that, equal
// character chunks).
func (e *Extractor) FastParsePerPage(ctx context.Context, pdfPath string, pageCount int) ([]pipeline.Page, error) {
	if e.Caps.HasTextExtract() {
		return e.fastParseViaPoppler(ctx, pdfPath, pageCount)
	}
	return e.fastParseViaFallback(pdfPath, pageCount)
}

func (e *Extractor) fastParseViaPoppler(ctx context.Context, pdfPath string, pageCount int) ([]pipeline.Page, error) {
	pages := make([]pipeline.Page, 0, pageCount)
	failures := 0
	for p := 1; p <= pageCount; p++ {
		pctx, cancel := withTimeout(ctx, e.Timeout.TextExtractSec)
		text, err := e.Caps.TextExtractPage(pctx, pdfPath, p)
		cancel()
		if err != nil {
			failures++
			pages = append(pages, pipeline.Page{PageNumber: p, Empty: true, Method: "fast-parse-poppler", Confidence: 0})
			continue
		}
		pages = append(pages, pipeline.Page{
			PageNumber: p,
			Text:       text,
			Confidence: 0.95,
			Empty:      len(strings.TrimSpace(text)) < emptyPageCharThreshold,
			Method:     "fast-parse-poppler",
		})
	}

	// A pdftotext binary that rejects per-page invocation (unusual build,
	// missing -f/-l support) fails every page the same way; bootstrap off a
	// single whole-document call instead of trusting pageCount empty pages.
	if pageCount > 0 && failures == pageCount {
		if bootstrapped, ok := e.bootstrapFromFullText(ctx, pdfPath, pageCount); ok {
			return bootstrapped, nil
		}
	}
	return pages, nil
}

// bootstrapFromFullText is the ocr-free rescue path for a pdftotext binary
// that cannot do per-page extraction: one TextExtractFull call, split on the
// form feeds pdftotext inserts between pages.
func (e *Extractor) bootstrapFromFullText(ctx context.Context, pdfPath string, pageCount int) ([]pipeline.Page, bool) {
	fctx, cancel := withTimeout(ctx, e.Timeout.TextExtractSec)
	full, err := e.Caps.TextExtractFull(fctx, pdfPath)
	cancel()
	if err != nil {
		return nil, false
	}

	const bootstrapConfidence = 0.85
	parts := strings.Split(full, "\f")
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	if !withinTolerance(len(parts), pageCount, 0.8) {
		return nil, false
	}

	pages := make([]pipeline.Page, 0, len(parts))
	for i, text := range parts {
		pages = append(pages, pipeline.Page{
			PageNumber: i + 1,
			Text:       text,
			Confidence: bootstrapConfidence,
			Empty:      len(strings.TrimSpace(text)) < emptyPageCharThreshold,
			Method:     "fast-parse-poppler-bootstrap",
		})
	}
	return pages, true
}

// fastParseViaFallback reproduces pdftotext's page splitting using
// dslipak/pdf's plain-text extraction plus a form-feed split heuristic, as
// specified: if form-feed count is within 80% of pageCount, trust it;
// otherwise split into pageCount equal character chunks.
func (e *Extractor) fastParseViaFallback(pdfPath string, pageCount int) ([]pipeline.Page, error) {
	reader, err := dslipakpdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("pdfx: fallback open %q: %w", pdfPath, err)
	}

	var full strings.Builder
	for p := 1; p <= reader.NumPage(); p++ {
		page := reader.Page(p)
		if page.V.IsNull() {
			full.WriteString("\f")
			continue
		}
		fonts := make(map[string]*dslipakpdf.Font)
		text, _ := page.GetPlainText(fonts)
		full.WriteString(text)
		full.WriteString("\f")
	}

	raw := full.String()
	ffParts := strings.Split(raw, "\f")
	// Trailing split produces one extra empty element.
	if len(ffParts) > 0 && strings.TrimSpace(ffParts[len(ffParts)-1]) == "" {
		ffParts = ffParts[:len(ffParts)-1]
	}

	// legacy _splitIntoPages flat-confidence behavior (§9 open question):
	// this path reports a flat 0.8 confidence regardless of per-page signal.
	const legacyFallbackConfidence = 0.8

	if withinTolerance(len(ffParts), pageCount, 0.8) {
		pages := make([]pipeline.Page, 0, len(ffParts))
		for i, text := range ffParts {
			pages = append(pages, pipeline.Page{
				PageNumber: i + 1,
				Text:       text,
				Confidence: legacyFallbackConfidence,
				Empty:      len(strings.TrimSpace(text)) < emptyPageCharThreshold,
				Method:     "fast-parse-fallback-formfeed",
			})
		}
		return pages, nil
	}

	return splitIntoEqualChunks(raw, pageCount, legacyFallbackConfidence), nil
}

func withinTolerance(formFeedCount, pageCount int, tolerance float64) bool {
	if pageCount == 0 {
		return false
	}
	ratio := float64(formFeedCount) / float64(pageCount)
	return ratio >= tolerance
}

func splitIntoEqualChunks(text string, pageCount int, confidence float64) []pipeline.Page {
	if pageCount <= 0 {
		pageCount = 1
	}
	runes := []rune(strings.ReplaceAll(text, "\f", ""))
	chunkSize := (len(runes) + pageCount - 1) / pageCount
	if chunkSize == 0 {
		chunkSize = 1
	}
	pages := make([]pipeline.Page, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		start := i * chunkSize
		if start > len(runes) {
			start = len(runes)
		}
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		pages = append(pages, pipeline.Page{
			PageNumber: i + 1,
			Text:       chunk,
			Confidence: confidence,
			Empty:      len(strings.TrimSpace(chunk)) < emptyPageCharThreshold,
			Method:     "fast-parse-fallback-chunked",
		})
	}
	return pages
}

// OCRSinglePage rasterizes one page at standard (300 dpi) or enhanced
// (400 dpi) resolution, applies the router's preprocessing flags to the
// raster in-process (see preprocess.go), and runs tesseract on it with
// Portuguese language, thresholding_method=1, single-thread enforced via
// OMP_NUM_THREADS=1.
func (e *Extractor) OCRSinglePage(ctx context.Context, pdfPath string, page int, enhanced bool, dpiStandard, dpiEnhanced int, preprocessing []string) (pipeline.Page, error) {
	dpi := dpiStandard
	confidence := 0.85
	if enhanced {
		dpi = dpiEnhanced
		confidence = 0.80
	}

	workDir, err := os.MkdirTemp("", "lexseg-ocr-*")
	if err != nil {
		return pipeline.Page{}, fmt.Errorf("pdfx: temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	rctx, cancel := withTimeout(ctx, e.Timeout.RasterizeSec)
	pngPath, err := e.Caps.RasterizePage(rctx, pdfPath, page, dpi, workDir)
	cancel()
	if err != nil {
		return pipeline.Page{PageNumber: page, Empty: true, Method: "ocr-standard", Confidence: 0}, err
	}
	if err := ApplyPreprocessing(pngPath, preprocessing); err != nil {
		return pipeline.Page{PageNumber: page, Empty: true, Method: "ocr-standard", Confidence: 0}, err
	}

	octx, cancel := withTimeout(ctx, e.Timeout.OCRSec)
	text, err := e.Caps.OCRImage(octx, pngPath, e.Caps.PageSegMode)
	cancel()
	if err != nil {
		return pipeline.Page{PageNumber: page, Empty: true, Method: "ocr-standard", Confidence: 0}, err
	}

	text = OCRPostProcess(text)
	method := "ocr-standard"
	if enhanced {
		method = "ocr-enhanced"
	}

	return pipeline.Page{
		PageNumber: page,
		Text:       text,
		Confidence: confidence,
		Empty:      len(strings.TrimSpace(text)) < emptyPageCharThreshold,
		Method:     method,
	}, nil
}

// rotationCandidates are tried in order when the initial OCR garbage score
// gates above the threshold.
var rotationCandidates = []int{180, 90, 270}

// OCRSinglePageWithRetry computes the garbage score of an initial OCR pass
// and, when it gates above rotation_garbage_gate, retries with the source
// image rotated through each candidate angle, keeping whichever rotation
// produces the lowest garbage score, early-exiting below
// rotation_early_exit.
func (e *Extractor) OCRSinglePageWithRetry(
	ctx context.Context, pdfPath string, page int, enhanced bool,
	dpiStandard, dpiEnhanced int, garbageGate, earlyExit float64, preprocessing []string,
) (pipeline.Page, error) {
	best, err := e.OCRSinglePage(ctx, pdfPath, page, enhanced, dpiStandard, dpiEnhanced, preprocessing)
	if err != nil {
		return best, err
	}
	bestScore := textquality.WordGarbageScore(best.Text)
	best.WordGarbageScore = bestScore

	if bestScore < garbageGate || !e.Caps.HasRotate() {
		return best, nil
	}

	for _, deg := range rotationCandidates {
		candidate, rotErr := e.ocrWithRotation(ctx, pdfPath, page, enhanced, dpiStandard, dpiEnhanced, deg, preprocessing)
		if rotErr != nil {
			continue
		}
		score := textquality.WordGarbageScore(candidate.Text)
		if score < bestScore {
			candidate.WordGarbageScore = score
			candidate.RotationApplied = deg
			best = candidate
			bestScore = score
		}
		if bestScore < earlyExit {
			break
		}
	}

	return best, nil
}

func (e *Extractor) ocrWithRotation(
	ctx context.Context, pdfPath string, page int, enhanced bool, dpiStandard, dpiEnhanced, deg int, preprocessing []string,
) (pipeline.Page, error) {
	dpi := dpiStandard
	confidence := 0.85
	if enhanced {
		dpi = dpiEnhanced
		confidence = 0.80
	}

	workDir, err := os.MkdirTemp("", "lexseg-ocr-rot-*")
	if err != nil {
		return pipeline.Page{}, err
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	rctx, cancel := withTimeout(ctx, e.Timeout.RasterizeSec)
	pngPath, err := e.Caps.RasterizePage(rctx, pdfPath, page, dpi, workDir)
	cancel()
	if err != nil {
		return pipeline.Page{}, err
	}
	if err := ApplyPreprocessing(pngPath, preprocessing); err != nil {
		return pipeline.Page{}, err
	}

	rotOutPath := pngPath + ".rot.png"
	rotctx, cancel := withTimeout(ctx, e.Timeout.RotateSec)
	rotatedPath, err := e.Caps.RotateImage(rotctx, pngPath, deg, rotOutPath)
	cancel()
	if err != nil {
		return pipeline.Page{}, err
	}

	octx, cancel := withTimeout(ctx, e.Timeout.OCRSec)
	text, err := e.Caps.OCRImage(octx, rotatedPath, e.Caps.PageSegMode)
	cancel()
	if err != nil {
		return pipeline.Page{}, err
	}

	text = OCRPostProcess(text)
	method := "ocr-standard"
	if enhanced {
		method = "ocr-enhanced"
	}
	return pipeline.Page{
		PageNumber: page,
		Text:       text,
		Confidence: confidence,
		Empty:      len(strings.TrimSpace(text)) < emptyPageCharThreshold,
		Method:     method,
	}, nil
}

// ExtractHybrid arbitrates, per needs-OCR page, between the fast-parse and
// OCR text by garbage score, keeping the lower-garbage version. If the
// chosen version still scores above garbagePenaltyThreshold, its
// confidence is clamped to garbagePenaltyConfidence.
func (e *Extractor) ExtractHybrid(
	ctx context.Context, pdfPath string, fastPages []pipeline.Page, routes []pipeline.PageRoute,
	dpiStandard, dpiEnhanced int, garbageGate, earlyExit, garbagePenaltyThreshold, garbagePenaltyConfidence float64,
	preprocessing []string,
) pipeline.ExtractedDocument {
	byPage := make(map[int]pipeline.Page, len(fastPages))
	for _, p := range fastPages {
		byPage[p.PageNumber] = p
	}

	var ocrPages []int
	for _, route := range routes {
		if !route.NeedsOCR {
			continue
		}
		enhanced := route.Method == pipeline.MethodOCREnhanced
		ocrPage, err := e.OCRSinglePageWithRetry(ctx, pdfPath, route.Page, enhanced, dpiStandard, dpiEnhanced, garbageGate, earlyExit, preprocessing)
		if err != nil {
			continue
		}
		ocrPages = append(ocrPages, route.Page)

		fastPage, hasFast := byPage[route.Page]
		chosen := arbitrate(fastPage, hasFast, ocrPage, garbagePenaltyThreshold, garbagePenaltyConfidence)

		// FallbackChain escalation: ocr-standard that still gates above the
		// garbage-penalty threshold moves to the next link, ocr-enhanced,
		// before the orchestrator's manual-review floor ever sees it.
		if !enhanced && chosen.WordGarbageScore > garbagePenaltyThreshold {
			if escalated, escErr := e.OCRSinglePageWithRetry(ctx, pdfPath, route.Page, true, dpiStandard, dpiEnhanced, garbageGate, earlyExit, preprocessing); escErr == nil {
				reArbitrated := arbitrate(fastPage, hasFast, escalated, garbagePenaltyThreshold, garbagePenaltyConfidence)
				if reArbitrated.WordGarbageScore < chosen.WordGarbageScore {
					chosen = reArbitrated
				}
			}
		}

		byPage[route.Page] = chosen
	}

	pages := make([]pipeline.Page, 0, len(byPage))
	var confSum float64
	var confN int
	for p := 1; p <= len(byPage); p++ {
		page, ok := byPage[p]
		if !ok {
			continue
		}
		pages = append(pages, page)
		if !page.Empty {
			confSum += page.Confidence
			confN++
		}
	}

	overall := 0.0
	if confN > 0 {
		overall = confSum / float64(confN)
	}

	return pipeline.ExtractedDocument{
		Method:            "hybrid",
		Pages:             pages,
		OverallConfidence: overall,
		OCRPages:          ocrPages,
		OCRMethod:         "tesseract",
	}
}

func arbitrate(fastPage pipeline.Page, hasFast bool, ocrPage pipeline.Page, penaltyThreshold, penaltyConfidence float64) pipeline.Page {
	ocrScore := textquality.WordGarbageScore(ocrPage.Text)

	if !hasFast {
		return clampIfGarbage(ocrPage, ocrScore, penaltyThreshold, penaltyConfidence, true, false)
	}

	fastScore := textquality.WordGarbageScore(fastPage.Text)
	if ocrScore <= fastScore {
		return clampIfGarbage(ocrPage, ocrScore, penaltyThreshold, penaltyConfidence, true, false)
	}
	return clampIfGarbage(fastPage, fastScore, penaltyThreshold, penaltyConfidence, false, true)
}

func clampIfGarbage(page pipeline.Page, score, threshold, clampedConfidence float64, ocrReplaced, fallbackToFP bool) pipeline.Page {
	page.WordGarbageScore = score
	page.OCRReplaced = ocrReplaced
	page.OCRFallbackToFP = fallbackToFP
	if score > threshold {
		page.Confidence = clampedConfidence
	}
	return page
}

// FallbackChain describes the escalation path ExtractHybrid walks per page:
// fast-parse is arbitrated against ocr-standard, a still-garbage ocr-standard
// result escalates to ocr-enhanced, and manual-review is the terminal link
// the orchestrator applies itself once overall confidence still gates below
// extraction_fallback_confidence after extraction.
var FallbackChain = []string{"fast-parse", "ocr-standard", "ocr-enhanced", "manual-review"}

func withTimeout(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		seconds = 30
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}

// --- OCR post-processing (§4.2.1) ---

var (
	splitLetterRunRe = regexp.MustCompile(`\b(?:[A-Za-zÀ-ÿ]\s+){2,}[A-Za-zÀ-ÿ]\b`)
	digitInWordRe    = regexp.MustCompile(`([A-Za-zÀ-ÿ])(\d)([A-Za-zÀ-ÿ])`)
	doubleSpaceRe    = regexp.MustCompile(`[ \t]{2,}`)
)

// knownMisreads maps common Portuguese OCR digit-for-letter misreads in
// proper names, e.g. "Jos6" -> "José".
var knownMisreads = map[string]string{
	"Jos6":    "José",
	"Jo5é":    "José",
	"Mar1a":   "Maria",
	"Ant0nio": "Antônio",
	"S1lva":   "Silva",
}

// OCRPostProcess applies deterministic regex substitutions for common
// Portuguese OCR artifacts: split mid-word single-letter sequences, known
// name misreads, digit-in-word patterns, and double-space collapse.
// Applied after every OCR run, before garbage scoring.
func OCRPostProcess(text string) string {
	text = splitLetterRunRe.ReplaceAllStringFunc(text, collapseSplitWord)
	for broken, fixed := range knownMisreads {
		text = strings.ReplaceAll(text, broken, fixed)
	}
	text = digitInWordRe.ReplaceAllStringFunc(text, fixLetterDigitLetter)
	text = doubleSpaceRe.ReplaceAllString(text, " ")
	return text
}

// collapseSplitWord joins a run of single-letter "words" (e.g. "J o s é")
// back into one token, the common OCR artifact from over-segmented glyphs.
func collapseSplitWord(match string) string {
	return strings.ReplaceAll(match, " ", "")
}

func fixLetterDigitLetter(match string) string {
	// A digit sandwiched between two letters is almost always a misread
	// letter (e.g. "6" for "é"); drop it rather than guess which letter.
	sub := digitInWordRe.FindStringSubmatch(match)
	if len(sub) != 4 {
		return match
	}
	return sub[1] + sub[3]
}
