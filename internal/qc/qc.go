// Package qc validates a document's exported Markdown segments against
// index.json, applying the seven checks that decide whether each file
// passes, is flagged for review, or is rejected outright.
package qc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lexseg/lexseg/internal/markdown"
)

// Status is the per-file QC verdict.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFlagged Status = "flagged"
	StatusRejected Status = "rejected"
)

// FileResult is the QC outcome for one exported Markdown file.
type FileResult struct {
	File       string   `json:"file"`
	SegmentID  string   `json:"segment_id"`
	DocType    string   `json:"doc_type"`
	Status     Status   `json:"status"`
	Rejects    []string `json:"rejects,omitempty"`
	Flags      []string `json:"flags,omitempty"`
}

// Report is the document-level QC rollup.
type Report struct {
	Results         []FileResult `json:"results"`
	Passed          int          `json:"passed"`
	Flagged         int          `json:"flagged"`
	Rejected        int          `json:"rejected"`
	MislabelsCaught int          `json:"mislabels_caught"`
}

// mislabelRule requires at least one of Patterns to match a doc-type's
// body text; doc-types absent from this table are not checked.
type mislabelRule struct {
	Patterns []*regexp.Regexp
}

var mislabelRules = map[string]mislabelRule{
	"sentenca": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)julg`),
		regexp.MustCompile(`(?i)procedente|improcedente`),
	}},
	"acordao": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)acordam|turma|desembargador`),
	}},
	"despacho": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)cite-se|intime-se|manifeste-se|determino`),
	}},
	"decisao": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)decido|indefiro|deferido|decisão`),
	}},
	"certidao": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)certifico|certidão`),
	}},
	"peticao-inicial": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)vem.{0,60}requerer|vem.{0,60}propor`),
	}},
	"contestacao": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)contesta|improcedência dos pedidos`),
	}},
	"apelacao": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)apelação|recurso de apelação`),
	}},
	"embargos-execucao": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)embargos.{0,20}execução`),
	}},
	"agravo-instrumento": {Patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)agravo de instrumento`),
	}},
}

// filenameKeywordMap maps a filename token to the doc-type it implies;
// a segment classified as something else (and not unknown) is flagged.
var filenameKeywordMap = map[string]string{
	"sentenca":   "sentenca",
	"acordao":    "acordao",
	"despacho":   "despacho",
	"decisao":    "decisao",
	"certidao":   "certidao",
	"contestacao": "contestacao",
	"apelacao":   "apelacao",
	"inicial":    "peticao-inicial",
	"citacao":    "certidao-citacao",
}

const (
	emptyContentMinChars = 50
	requiredFrontmatterFields = 7
)

type rawFrontmatter struct {
	SegmentID              string  `yaml:"segment_id"`
	SourcePDF              string  `yaml:"source_pdf"`
	SourcePDFPath          string  `yaml:"source_pdf_path"`
	PageRange              string  `yaml:"page_range"`
	TotalPages             int     `yaml:"total_pages"`
	SegmentType            string  `yaml:"segment_type"`
	DocType                string  `yaml:"doc_type"`
	ExtractionConfidence   float64 `yaml:"extraction_confidence"`
	SegmentationConfidence float64 `yaml:"segmentation_confidence"`
}

// Params configures the two confidence floors below which a file is
// flagged, and the QC min-body-chars floor.
type Params struct {
	ExtractionConfidenceFlag   float64
	SegmentationConfidenceFlag float64
	MinBodyChars               int
	ReviewDir                  string
}

// Validate reads index.json from dir, applies the seven QC checks to each
// referenced file, copies rejected files into params.ReviewDir, and
// returns the document-level report.
func Validate(dir string, params Params) (Report, error) {
	idxBytes, err := os.ReadFile(filepath.Join(dir, "index.json"))
	if err != nil {
		return Report{}, fmt.Errorf("qc: reading index.json: %w", err)
	}
	var idx markdown.Index
	if err := json.Unmarshal(idxBytes, &idx); err != nil {
		return Report{}, fmt.Errorf("qc: parsing index.json: %w", err)
	}

	var report Report
	for _, entry := range idx.Files {
		result, err := validateFile(entry, params)
		if err != nil {
			return Report{}, err
		}
		report.Results = append(report.Results, result)
		switch result.Status {
		case StatusPassed:
			report.Passed++
		case StatusFlagged:
			report.Flagged++
		case StatusRejected:
			report.Rejected++
		}
	}

	gaps, overlaps := checkCoverage(idx)
	if len(gaps) > 0 {
		for i := range report.Results {
			report.Results[i].Flags = append(report.Results[i].Flags, fmt.Sprintf("document has missing pages: %v", gaps))
			if report.Results[i].Status != StatusRejected {
				report.Results[i].Status = StatusFlagged
			}
		}
		report.Flagged = countStatus(report.Results, StatusFlagged)
		report.Passed = countStatus(report.Results, StatusPassed)
	}
	if len(overlaps) > 0 {
		for i := range report.Results {
			entryPages := idx.Files[i].Pages
			if !rangeIntersects(entryPages, overlaps) {
				continue
			}
			report.Results[i].Rejects = append(report.Results[i].Rejects, fmt.Sprintf("overlapping pages: %v", overlaps))
			if report.Results[i].Status != StatusRejected {
				report.Results[i].Status = StatusRejected
			}
		}
		report.Passed = countStatus(report.Results, StatusPassed)
		report.Flagged = countStatus(report.Results, StatusFlagged)
		report.Rejected = countStatus(report.Results, StatusRejected)
	}

	if err := copyRejectedToReview(report, dir, params.ReviewDir); err != nil {
		return Report{}, err
	}

	for _, r := range report.Results {
		for _, reject := range r.Rejects {
			if strings.Contains(reject, "mislabel") {
				report.MislabelsCaught++
			}
		}
	}
	return report, nil
}

func validateFile(entry markdown.IndexEntry, params Params) (FileResult, error) {
	result := FileResult{File: entry.File, SegmentID: entry.SegmentID, DocType: entry.DocType, Status: StatusPassed}

	raw, err := os.ReadFile(entry.FilePath)
	if err != nil {
		return FileResult{}, fmt.Errorf("qc: reading %s: %w", entry.File, err)
	}
	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		result.Status = StatusRejected
		result.Rejects = append(result.Rejects, "could not parse frontmatter: "+err.Error())
		return result, nil
	}

	if missing := missingFrontmatterFields(fm, string(raw)); len(missing) > 0 {
		result.Status = StatusRejected
		result.Rejects = append(result.Rejects, fmt.Sprintf("missing required frontmatter fields: %v", missing))
	}

	minChars := params.MinBodyChars
	if minChars == 0 {
		minChars = emptyContentMinChars
	}
	if len([]rune(strings.TrimSpace(body))) < minChars {
		result.Status = StatusRejected
		result.Rejects = append(result.Rejects, "body content below minimum length")
	}

	if rule, ok := mislabelRules[fm.DocType]; ok {
		matched := false
		for _, p := range rule.Patterns {
			if p.MatchString(body) {
				matched = true
				break
			}
		}
		if !matched {
			result.Status = StatusRejected
			result.Rejects = append(result.Rejects, fmt.Sprintf("mislabel suspected: %s lacks expected patterns", fm.DocType))
		}
	}

	if expected, ok := filenameExpectedType(entry.File); ok && fm.DocType != expected && fm.DocType != "unknown" {
		result.Flags = append(result.Flags, fmt.Sprintf("filename implies %s, classified as %s", expected, fm.DocType))
	}

	if fm.DocType == "unknown" || fm.DocType == "" {
		result.Flags = append(result.Flags, "unknown doc_type")
	}

	if fm.ExtractionConfidence < params.ExtractionConfidenceFlag {
		result.Flags = append(result.Flags, fmt.Sprintf("low extraction confidence: %.2f", fm.ExtractionConfidence))
	}
	if fm.SegmentationConfidence < params.SegmentationConfidenceFlag {
		result.Flags = append(result.Flags, fmt.Sprintf("low segmentation confidence: %.2f", fm.SegmentationConfidence))
	}

	if result.Status != StatusRejected && len(result.Flags) > 0 {
		result.Status = StatusFlagged
	}
	return result, nil
}

func splitFrontmatter(content string) (rawFrontmatter, string, error) {
	const delim = "---\n"
	if !strings.HasPrefix(content, delim) {
		return rawFrontmatter{}, "", fmt.Errorf("missing frontmatter delimiter")
	}
	rest := content[len(delim):]
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		return rawFrontmatter{}, "", fmt.Errorf("unterminated frontmatter block")
	}
	fmBlock := rest[:end]
	body := rest[end+len("\n---\n"):]

	var fm rawFrontmatter
	if err := yaml.Unmarshal([]byte(fmBlock), &fm); err != nil {
		return rawFrontmatter{}, "", fmt.Errorf("invalid YAML: %w", err)
	}
	return fm, body, nil
}

func missingFrontmatterFields(fm rawFrontmatter, raw string) []string {
	checks := []struct {
		name    string
		present bool
	}{
		{"segment_id", fm.SegmentID != ""},
		{"source_pdf", fm.SourcePDF != ""},
		{"source_pdf_path", fm.SourcePDFPath != ""},
		{"page_range", fm.PageRange != ""},
		{"total_pages", strings.Contains(raw, "total_pages:")},
		{"segment_type", fm.SegmentType != ""},
		{"doc_type", fm.DocType != ""},
	}
	var missing []string
	for _, c := range checks {
		if !c.present {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > requiredFrontmatterFields {
		missing = missing[:requiredFrontmatterFields]
	}
	return missing
}

func countStatus(results []FileResult, status Status) int {
	count := 0
	for _, r := range results {
		if r.Status == status {
			count++
		}
	}
	return count
}

func rangeIntersects(pages string, targets []int) bool {
	var start, end int
	if _, err := fmt.Sscanf(pages, "%d-%d", &start, &end); err != nil {
		return false
	}
	for _, t := range targets {
		if t >= start && t <= end {
			return true
		}
	}
	return false
}

func filenameExpectedType(fileName string) (string, bool) {
	lower := strings.ToLower(fileName)
	for token, expected := range filenameKeywordMap {
		if strings.Contains(lower, token) {
			return expected, true
		}
	}
	return "", false
}

// checkCoverage compares index.json's declared page ranges against the
// document's total_pages, returning gap pages and overlapping pages.
func checkCoverage(idx markdown.Index) (gaps []int, overlaps []int) {
	type pageRange struct{ start, end int }
	var ranges []pageRange
	for _, f := range idx.Files {
		parts := strings.SplitN(f.Pages, "-", 2)
		if len(parts) != 2 {
			continue
		}
		var start, end int
		if _, err := fmt.Sscanf(f.Pages, "%d-%d", &start, &end); err != nil {
			continue
		}
		ranges = append(ranges, pageRange{start, end})
	}

	covered := make(map[int]int)
	for _, r := range ranges {
		for p := r.start; p <= r.end; p++ {
			covered[p]++
		}
	}
	for p, count := range covered {
		if count > 1 {
			overlaps = append(overlaps, p)
		}
	}
	for p := 1; p <= idx.TotalPages; p++ {
		if covered[p] == 0 {
			gaps = append(gaps, p)
		}
	}
	sort.Ints(overlaps)
	sort.Ints(gaps)
	return gaps, overlaps
}

func copyRejectedToReview(report Report, sourceDir, reviewDir string) error {
	hasRejects := false
	for _, r := range report.Results {
		if r.Status == StatusRejected {
			hasRejects = true
			break
		}
	}
	if !hasRejects {
		return nil
	}
	if err := os.MkdirAll(reviewDir, 0o750); err != nil {
		return fmt.Errorf("qc: creating review dir: %w", err)
	}
	for _, r := range report.Results {
		if r.Status != StatusRejected {
			continue
		}
		src, err := os.ReadFile(filepath.Join(sourceDir, r.File))
		if err != nil {
			return fmt.Errorf("qc: reading %s for review copy: %w", r.File, err)
		}
		if err := os.WriteFile(filepath.Join(reviewDir, r.File), src, 0o600); err != nil {
			return fmt.Errorf("qc: copying %s to review: %w", r.File, err)
		}
	}
	return nil
}
