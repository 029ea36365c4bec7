// Package capability wraps the external binaries the pipeline leans on
// (pdftotext, pdftoppm, tesseract, and sips/convert) behind the methods of
// one Set struct, so the rest of the code holds no exec.Command call
// sites. Availability is probed once via exec.LookPath;
// callers downgrade gracefully when a tool is absent instead of failing.
package capability

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lexseg/lexseg/internal/pipeerr"
)

// Set resolves and caches the absolute paths of every external tool the
// pipeline depends on. A zero-value field means that tool was not found.
type Set struct {
	PdftotextPath string
	PdftoppmPath  string
	TesseractPath string
	SipsPath      string
	ConvertPath   string
	OCRLanguage   string

	// PageSegMode is tesseract's --psm argument (3 or 6 per §6); callers in
	// pdfx pass it straight through to OCRImage rather than hardcoding it.
	PageSegMode int
}

// Probe resolves tool paths, preferring any explicit override already set
// on cfg (e.g. from configuration), falling back to exec.LookPath.
func Probe(cfg Set) Set {
	resolved := cfg
	resolved.PdftotextPath = resolveOrLookup(cfg.PdftotextPath, "pdftotext")
	resolved.PdftoppmPath = resolveOrLookup(cfg.PdftoppmPath, "pdftoppm")
	resolved.TesseractPath = resolveOrLookup(cfg.TesseractPath, "tesseract")
	resolved.SipsPath = resolveOrLookup(cfg.SipsPath, "sips")
	resolved.ConvertPath = resolveOrLookup(cfg.ConvertPath, "convert")
	if resolved.OCRLanguage == "" {
		resolved.OCRLanguage = "por"
	}
	if resolved.PageSegMode == 0 {
		resolved.PageSegMode = 3
	}
	return resolved
}

func resolveOrLookup(override, name string) string {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

// HasTextExtract reports whether pdftotext is available.
func (s Set) HasTextExtract() bool { return s.PdftotextPath != "" }

// HasRasterize reports whether pdftoppm is available.
func (s Set) HasRasterize() bool { return s.PdftoppmPath != "" }

// HasOCR reports whether tesseract is available.
func (s Set) HasOCR() bool { return s.TesseractPath != "" }

// HasRotate reports whether either sips or convert is available.
func (s Set) HasRotate() bool { return s.SipsPath != "" || s.ConvertPath != "" }

// Limitations reports a limitations[] entry per §4.10 for every missing tool.
func (s Set) Limitations() []string {
	var out []string
	if !s.HasTextExtract() {
		out = append(out, "pdftotext unavailable: fast-parse falls back to dslipak/pdf vector extraction")
	}
	if !s.HasRasterize() {
		out = append(out, "pdftoppm unavailable: OCR-routed pages downgraded to best-effort fast-parse")
	}
	if !s.HasOCR() {
		out = append(out, "tesseract unavailable: OCR-routed pages downgraded to best-effort fast-parse")
	}
	if !s.HasRotate() {
		out = append(out, "sips/convert unavailable: rotation retry on garbage OCR disabled")
	}
	return out
}

// TextExtractPage runs `pdftotext -f N -l N -raw <pdf> -` for a single page
// and returns its UTF-8 text.
func (s Set) TextExtractPage(ctx context.Context, pdfPath string, page int) (string, error) {
	if !s.HasTextExtract() {
		return "", pipeerr.NewCapabilityError("pdftotext")
	}
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, s.PdftotextPath, "-f", pageStr, "-l", pageStr, "-raw", pdfPath, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext page %d: %w (stderr: %s)", page, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// TextExtractFull runs pdftotext across the whole document. pdfx calls this
// once, splitting on form feeds, when per-page TextExtractPage calls fail
// across every page of a document (see Extractor.bootstrapFromFullText).
func (s Set) TextExtractFull(ctx context.Context, pdfPath string) (string, error) {
	if !s.HasTextExtract() {
		return "", pipeerr.NewCapabilityError("pdftotext")
	}
	cmd := exec.CommandContext(ctx, s.PdftotextPath, "-raw", pdfPath, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext full: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// RasterizePage runs `pdftoppm -r dpi -f N -l N -png <pdf> <prefix>` and
// returns the path to the produced PNG. pdftoppm appends a zero-padded page
// suffix to the prefix; since a single page is requested, exactly one file
// is produced.
func (s Set) RasterizePage(ctx context.Context, pdfPath string, page, dpi int, workDir string) (string, error) {
	if !s.HasRasterize() {
		return "", pipeerr.NewCapabilityError("pdftoppm")
	}
	prefix := filepath.Join(workDir, fmt.Sprintf("p%06d", page))
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, s.PdftoppmPath, "-r", strconv.Itoa(dpi), "-f", pageStr, "-l", pageStr, "-png", pdfPath, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %w (stderr: %s)", page, err, strings.TrimSpace(stderr.String()))
	}
	matches, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm page %d: produced no png", page)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// OCRImage runs `tesseract <png> stdout -l por --psm {3|6} --oem 1
// -c thresholding_method=1` with OMP_NUM_THREADS=1 forced, and returns raw
// OCR text.
func (s Set) OCRImage(ctx context.Context, pngPath string, psm int) (string, error) {
	if !s.HasOCR() {
		return "", pipeerr.NewCapabilityError("tesseract")
	}
	lang := s.OCRLanguage
	if lang == "" {
		lang = "por"
	}
	cmd := exec.CommandContext(ctx, s.TesseractPath, pngPath, "stdout",
		"-l", lang,
		"--psm", strconv.Itoa(psm),
		"--oem", "1",
		"-c", "thresholding_method=1",
	)
	cmd.Env = append(os.Environ(), "OMP_NUM_THREADS=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract %s: %w (stderr: %s)", pngPath, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// RotateImage rotates the image at path by deg degrees, preferring sips
// (in-place) and falling back to convert (writes a new file returned by
// the caller-provided outPath).
func (s Set) RotateImage(ctx context.Context, path string, deg int, outPath string) (string, error) {
	switch {
	case s.SipsPath != "":
		cmd := exec.CommandContext(ctx, s.SipsPath, "--rotate", strconv.Itoa(deg), path)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("sips rotate: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
		}
		return path, nil
	case s.ConvertPath != "":
		cmd := exec.CommandContext(ctx, s.ConvertPath, path, "-rotate", strconv.Itoa(deg), outPath)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("convert rotate: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
		}
		return outPath, nil
	default:
		return "", pipeerr.NewCapabilityError("sips/convert")
	}
}
