package qc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lexseg/lexseg/internal/markdown"
)

func writeSegmentFile(t *testing.T, dir, name, frontmatter, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := "---\n" + frontmatter + "---\n\n" + body
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func writeIndex(t *testing.T, dir string, entries []markdown.IndexEntry, totalPages int) {
	t.Helper()
	idx := markdown.Index{SourcePDF: "doc.pdf", SegmentCount: len(entries), TotalPages: totalPages, Files: entries}
	raw, err := json.Marshal(idx)
	if err != nil {
		t.Fatalf("marshaling index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), raw, 0o600); err != nil {
		t.Fatalf("writing index.json: %v", err)
	}
}

func defaultParams(reviewDir string) Params {
	return Params{ExtractionConfidenceFlag: 0.7, SegmentationConfidenceFlag: 0.6, MinBodyChars: 50, ReviewDir: reviewDir}
}

func TestValidatePassesCleanSentenca(t *testing.T) {
	dir := t.TempDir()
	fm := "segment_id: seg-001\nsource_pdf: doc.pdf\nsource_pdf_path: /data/doc.pdf\npage_range: \"1-2\"\ntotal_pages: 2\nsegment_type: piece\ndoc_type: sentenca\nextraction_confidence: 0.95\nsegmentation_confidence: 0.9\n"
	body := "Vistos e julgados estes autos. Ante o exposto, julgo procedente o pedido formulado na petição inicial."
	path := writeSegmentFile(t, dir, "001-piece-sentenca.md", fm, body)
	writeIndex(t, dir, []markdown.IndexEntry{{File: "001-piece-sentenca.md", FilePath: path, SegmentID: "seg-001", DocType: "sentenca", Pages: "1-2", Confidence: 0.9}}, 2)

	report, err := Validate(dir, defaultParams(filepath.Join(dir, "review")))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if report.Passed != 1 || report.Rejected != 0 {
		t.Errorf("expected a clean pass, got %+v", report)
	}
}

func TestValidateRejectsEmptyContent(t *testing.T) {
	dir := t.TempDir()
	fm := "segment_id: seg-001\nsource_pdf: doc.pdf\nsource_pdf_path: /data/doc.pdf\npage_range: \"1-1\"\ntotal_pages: 1\nsegment_type: piece\ndoc_type: despacho\nextraction_confidence: 0.9\nsegmentation_confidence: 0.9\n"
	path := writeSegmentFile(t, dir, "001-piece-despacho.md", fm, "curto")
	writeIndex(t, dir, []markdown.IndexEntry{{File: "001-piece-despacho.md", FilePath: path, SegmentID: "seg-001", DocType: "despacho", Pages: "1-1", Confidence: 0.9}}, 1)

	report, err := Validate(dir, defaultParams(filepath.Join(dir, "review")))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if report.Rejected != 1 {
		t.Errorf("expected empty content to reject, got %+v", report.Results)
	}
	if _, err := os.Stat(filepath.Join(dir, "review", "001-piece-despacho.md")); err != nil {
		t.Errorf("expected rejected file copied into review dir: %v", err)
	}
}

func TestValidateRejectsMislabeledSentenca(t *testing.T) {
	dir := t.TempDir()
	fm := "segment_id: seg-001\nsource_pdf: doc.pdf\nsource_pdf_path: /data/doc.pdf\npage_range: \"1-1\"\ntotal_pages: 1\nsegment_type: piece\ndoc_type: sentenca\nextraction_confidence: 0.9\nsegmentation_confidence: 0.9\n"
	body := "Este documento não contém nenhum dos termos esperados para uma sentença judicial neste ponto do processo."
	path := writeSegmentFile(t, dir, "001-piece-sentenca.md", fm, body)
	writeIndex(t, dir, []markdown.IndexEntry{{File: "001-piece-sentenca.md", FilePath: path, SegmentID: "seg-001", DocType: "sentenca", Pages: "1-1", Confidence: 0.9}}, 1)

	report, err := Validate(dir, defaultParams(filepath.Join(dir, "review")))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if report.Rejected != 1 || report.MislabelsCaught != 1 {
		t.Errorf("expected mislabel rejection, got %+v", report)
	}
}

func TestValidateFlagsUnknownDocType(t *testing.T) {
	dir := t.TempDir()
	fm := "segment_id: seg-001\nsource_pdf: doc.pdf\nsource_pdf_path: /data/doc.pdf\npage_range: \"1-1\"\ntotal_pages: 1\nsegment_type: piece\ndoc_type: unknown\nextraction_confidence: 0.9\nsegmentation_confidence: 0.9\n"
	body := "Corpo de texto razoavelmente longo sem nenhum marcador estrutural reconhecido pelo classificador."
	path := writeSegmentFile(t, dir, "001-piece-unknown.md", fm, body)
	writeIndex(t, dir, []markdown.IndexEntry{{File: "001-piece-unknown.md", FilePath: path, SegmentID: "seg-001", DocType: "unknown", Pages: "1-1", Confidence: 0.9}}, 1)

	report, err := Validate(dir, defaultParams(filepath.Join(dir, "review")))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if report.Flagged != 1 {
		t.Errorf("expected unknown doc_type to be flagged, got %+v", report)
	}
}

func TestValidateFlagsLowConfidence(t *testing.T) {
	dir := t.TempDir()
	fm := "segment_id: seg-001\nsource_pdf: doc.pdf\nsource_pdf_path: /data/doc.pdf\npage_range: \"1-1\"\ntotal_pages: 1\nsegment_type: piece\ndoc_type: oficio\nextraction_confidence: 0.3\nsegmentation_confidence: 0.9\n"
	body := "Corpo de texto razoavelmente longo para este ofício sem maiores detalhes adicionais aqui presentes."
	path := writeSegmentFile(t, dir, "001-piece-oficio.md", fm, body)
	writeIndex(t, dir, []markdown.IndexEntry{{File: "001-piece-oficio.md", FilePath: path, SegmentID: "seg-001", DocType: "oficio", Pages: "1-1", Confidence: 0.9}}, 1)

	report, err := Validate(dir, defaultParams(filepath.Join(dir, "review")))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if report.Flagged != 1 {
		t.Errorf("expected low extraction confidence to flag, got %+v", report)
	}
}

func TestValidateRejectsOverlappingPages(t *testing.T) {
	dir := t.TempDir()
	fm1 := "segment_id: seg-001\nsource_pdf: doc.pdf\nsource_pdf_path: /data/doc.pdf\npage_range: \"1-2\"\ntotal_pages: 3\nsegment_type: piece\ndoc_type: despacho\nextraction_confidence: 0.9\nsegmentation_confidence: 0.9\n"
	fm2 := "segment_id: seg-002\nsource_pdf: doc.pdf\nsource_pdf_path: /data/doc.pdf\npage_range: \"2-3\"\ntotal_pages: 3\nsegment_type: piece\ndoc_type: decisao\nextraction_confidence: 0.9\nsegmentation_confidence: 0.9\n"
	body := "Intime-se. Decido: corpo de texto razoavelmente longo para este segmento, o suficiente para passar a checagem de tamanho mínimo."
	p1 := writeSegmentFile(t, dir, "001-piece-despacho.md", fm1, body)
	p2 := writeSegmentFile(t, dir, "002-piece-decisao.md", fm2, body)
	writeIndex(t, dir, []markdown.IndexEntry{
		{File: "001-piece-despacho.md", FilePath: p1, SegmentID: "seg-001", DocType: "despacho", Pages: "1-2", Confidence: 0.9},
		{File: "002-piece-decisao.md", FilePath: p2, SegmentID: "seg-002", DocType: "decisao", Pages: "2-3", Confidence: 0.9},
	}, 3)

	report, err := Validate(dir, defaultParams(filepath.Join(dir, "review")))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if report.Rejected != 2 {
		t.Errorf("expected both overlapping files to reject, got %+v", report)
	}
}

func TestValidateFlagsMissingPages(t *testing.T) {
	dir := t.TempDir()
	fm := "segment_id: seg-001\nsource_pdf: doc.pdf\nsource_pdf_path: /data/doc.pdf\npage_range: \"1-1\"\ntotal_pages: 3\nsegment_type: piece\ndoc_type: despacho\nextraction_confidence: 0.9\nsegmentation_confidence: 0.9\n"
	body := "Intime-se. Corpo de texto razoavelmente longo para este segmento, o suficiente para passar a checagem de tamanho mínimo."
	path := writeSegmentFile(t, dir, "001-piece-despacho.md", fm, body)
	writeIndex(t, dir, []markdown.IndexEntry{{File: "001-piece-despacho.md", FilePath: path, SegmentID: "seg-001", DocType: "despacho", Pages: "1-1", Confidence: 0.9}}, 3)

	report, err := Validate(dir, defaultParams(filepath.Join(dir, "review")))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if report.Flagged != 1 {
		t.Errorf("expected missing pages to flag, got %+v", report)
	}
}
