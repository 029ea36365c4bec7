// Package markdown exports each segment of a processed document as a
// Markdown file with a YAML frontmatter block, plus an index.json
// manifest enumerating everything written for the document.
package markdown

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexseg/lexseg/internal/pipeline"
)

// Frontmatter is the YAML header written at the top of every emitted
// Markdown file.
type Frontmatter struct {
	SegmentID              string    `yaml:"segment_id"`
	SourcePDF              string    `yaml:"source_pdf"`
	SourcePDFPath          string    `yaml:"source_pdf_path"`
	PageRange              string    `yaml:"page_range"`
	TotalPages             int       `yaml:"total_pages"`
	SegmentType            string    `yaml:"segment_type"`
	DocType                string    `yaml:"doc_type"`
	SegmentationConfidence float64   `yaml:"segmentation_confidence"`
	ExtractionMethod       string    `yaml:"extraction_method"`
	ExtractionConfidence   float64   `yaml:"extraction_confidence"`
	FallbackTriggered      bool      `yaml:"fallback_triggered,omitempty"`
	GeneratedAt            time.Time `yaml:"generated_at"`
	PipelineVersion        string    `yaml:"pipeline_version"`
}

// IndexEntry is one row of index.json.
type IndexEntry struct {
	File       string  `json:"file"`
	FilePath   string  `json:"file_path"`
	SegmentID  string  `json:"segment_id"`
	DocType    string  `json:"doc_type"`
	Pages      string  `json:"pages"`
	Confidence float64 `json:"confidence"`
}

// Index is the manifest written alongside the emitted Markdown files.
type Index struct {
	SourcePDF    string       `json:"source_pdf"`
	GeneratedAt  time.Time    `json:"generated_at"`
	SegmentCount int          `json:"segment_count"`
	TotalPages   int          `json:"total_pages"`
	Files        []IndexEntry `json:"files"`
}

// ExportParams carries everything Export needs beyond the segment list
// itself: the extraction outcome and document identity shared by every
// emitted file.
type ExportParams struct {
	SourcePDFName     string
	SourcePDFPath     string
	OutDir            string
	Pages             []pipeline.Page
	ExtractionMethod  string
	ExtractConfidence float64
	FallbackTriggered bool
	PipelineVersion   string
	GeneratedAt       time.Time
}

// Export writes one Markdown file per non-separator segment plus
// index.json into params.OutDir, returning the written Index.
func Export(segments []pipeline.Segment, params ExportParams) (Index, error) {
	if err := os.MkdirAll(params.OutDir, 0o750); err != nil {
		return Index{}, fmt.Errorf("markdown: creating output dir: %w", err)
	}

	pageByNumber := make(map[int]pipeline.Page, len(params.Pages))
	for _, p := range params.Pages {
		pageByNumber[p.PageNumber] = p
	}

	idx := Index{
		SourcePDF:   params.SourcePDFName,
		GeneratedAt: params.GeneratedAt,
		TotalPages:  len(params.Pages),
	}

	n := 0
	for _, seg := range segments {
		if seg.Type == pipeline.SegmentSeparator {
			continue
		}
		n++
		fileName := fmt.Sprintf("%03d-%s-%s.md", n, seg.Type, sanitizeDocType(seg.DocType))
		filePath := filepath.Join(params.OutDir, fileName)

		body, err := renderSegment(seg, pageByNumber, params)
		if err != nil {
			return Index{}, err
		}
		if err := os.WriteFile(filePath, []byte(body), 0o600); err != nil {
			return Index{}, fmt.Errorf("markdown: writing %s: %w", fileName, err)
		}

		idx.Files = append(idx.Files, IndexEntry{
			File:       fileName,
			FilePath:   filePath,
			SegmentID:  seg.SegmentID,
			DocType:    seg.DocType,
			Pages:      fmt.Sprintf("%d-%d", seg.PageStart, seg.PageEnd),
			Confidence: seg.Confidence,
		})
	}
	idx.SegmentCount = n

	if n == 0 {
		note := "<!-- manual-review: no segments were produced for this document; the full page range requires manual triage. -->\n"
		if err := os.WriteFile(filepath.Join(params.OutDir, "000-manual-review.md"), []byte(note), 0o600); err != nil {
			return Index{}, fmt.Errorf("markdown: writing manual-review placeholder: %w", err)
		}
	}

	indexBytes, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return Index{}, fmt.Errorf("markdown: marshaling index.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(params.OutDir, "index.json"), indexBytes, 0o600); err != nil {
		return Index{}, fmt.Errorf("markdown: writing index.json: %w", err)
	}
	return idx, nil
}

func renderSegment(seg pipeline.Segment, pageByNumber map[int]pipeline.Page, params ExportParams) (string, error) {
	fm := Frontmatter{
		SegmentID:              seg.SegmentID,
		SourcePDF:              params.SourcePDFName,
		SourcePDFPath:          params.SourcePDFPath,
		PageRange:              fmt.Sprintf("%d-%d", seg.PageStart, seg.PageEnd),
		TotalPages:             seg.PageEnd - seg.PageStart + 1,
		SegmentType:            string(seg.Type),
		DocType:                seg.DocType,
		SegmentationConfidence: seg.Confidence,
		ExtractionMethod:       params.ExtractionMethod,
		ExtractionConfidence:   params.ExtractConfidence,
		FallbackTriggered:      params.FallbackTriggered,
		GeneratedAt:            params.GeneratedAt,
		PipelineVersion:        params.PipelineVersion,
	}
	fmBytes, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("markdown: marshaling frontmatter for %s: %w", seg.SegmentID, err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fmBytes)
	b.WriteString("---\n\n")

	for i := seg.PageStart; i <= seg.PageEnd; i++ {
		if i > seg.PageStart {
			b.WriteString("\n\n---\n")
			b.WriteString(fmt.Sprintf("<!-- page-break: p.%d -->\n\n", i))
		}
		p, ok := pageByNumber[i]
		if !ok || p.Empty || strings.TrimSpace(p.Text) == "" {
			b.WriteString(fmt.Sprintf("<!-- page: p.%d (empty) -->\n", i))
			continue
		}
		b.WriteString(p.Text)
		if !strings.HasSuffix(p.Text, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

var docTypeFileSafe = strings.NewReplacer("/", "-", " ", "-", "\\", "-")

func sanitizeDocType(docType string) string {
	if docType == "" {
		return "unknown"
	}
	return docTypeFileSafe.Replace(docType)
}
