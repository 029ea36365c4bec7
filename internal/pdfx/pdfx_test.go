package pdfx

import (
	"testing"

	"github.com/lexseg/lexseg/internal/pipeline"
)

func TestOCRPostProcessSplitWord(t *testing.T) {
	in := "O nome é J o s é da Silva."
	out := OCRPostProcess(in)
	if out == in {
		t.Error("expected split single-letter run to be collapsed")
	}
}

func TestOCRPostProcessKnownMisread(t *testing.T) {
	out := OCRPostProcess("O autor Jos6 Pereira compareceu.")
	if out == "O autor Jos6 Pereira compareceu." {
		t.Error("expected known misread Jos6 to be fixed to José")
	}
}

func TestOCRPostProcessDoubleSpace(t *testing.T) {
	out := OCRPostProcess("texto  com    espacos duplos")
	if out != "texto com espacos duplos" {
		t.Errorf("expected double spaces collapsed, got %q", out)
	}
}

func TestSplitIntoEqualChunks(t *testing.T) {
	text := "0123456789"
	pages := splitIntoEqualChunks(text, 2, 0.8)
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].PageNumber != 1 || pages[1].PageNumber != 2 {
		t.Error("expected page numbers assigned in order")
	}
	joined := pages[0].Text + pages[1].Text
	if joined != text {
		t.Errorf("expected chunks to cover the whole text, got %q", joined)
	}
}

func TestWithinTolerance(t *testing.T) {
	if !withinTolerance(8, 10, 0.8) {
		t.Error("expected 8/10 = 0.8 to satisfy an 0.8 tolerance")
	}
	if withinTolerance(5, 10, 0.8) {
		t.Error("expected 5/10 = 0.5 to fail an 0.8 tolerance")
	}
}

func TestArbitratePrefersLowerGarbage(t *testing.T) {
	fast := pipeline.Page{PageNumber: 1, Text: "x~q z*w l¬k p8j zzZz a=b c6d", Confidence: 0.95}
	ocr := pipeline.Page{PageNumber: 1, Text: "O processo foi julgado procedente pela vara federal competente.", Confidence: 0.85}

	chosen := arbitrate(fast, true, ocr, 0.3, 0.4)
	if chosen.Text != ocr.Text {
		t.Error("expected the cleaner OCR text to win arbitration over garbled fast-parse text")
	}
	if !chosen.OCRReplaced {
		t.Error("expected OCRReplaced=true when OCR wins")
	}
}

func TestArbitrateClampsHighGarbageConfidence(t *testing.T) {
	fast := pipeline.Page{PageNumber: 1, Text: "x~q z*w l¬k p8j zzZz a=b c6d x~q z*w l¬k", Confidence: 0.95}
	ocr := pipeline.Page{PageNumber: 1, Text: "y~r w*x m¬l q8k aaAa b=c d6e y~r w*x m¬l", Confidence: 0.85}

	chosen := arbitrate(fast, true, ocr, 0.01, 0.4)
	if chosen.Confidence != 0.4 {
		t.Errorf("expected clamped confidence 0.4 for high-garbage result, got %f", chosen.Confidence)
	}
}

func TestArbitrateNoFastPage(t *testing.T) {
	ocr := pipeline.Page{PageNumber: 3, Text: "texto limpo e legivel do documento", Confidence: 0.85}
	chosen := arbitrate(pipeline.Page{}, false, ocr, 0.3, 0.4)
	if !chosen.OCRReplaced {
		t.Error("expected OCRReplaced=true when there is no fast-parse page to compare against")
	}
}
