// Package intake produces a deduplicated, deterministic-order manifest of
// the PDFs a batch run will process: one full SHA-256 plus a cheap
// first-4096-byte prefix hash per file, sorted lexicographically so that
// downstream per-file arrays stay index-aligned across a clean run and a
// resumed one.
package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lexseg/lexseg/internal/pipeline"
)

const prefixHashBytes = 4096

// Options controls enumeration and dedup behavior.
type Options struct {
	Recursive    bool
	DedupEnabled bool
}

// Ingest enumerates source (a single PDF or a directory), hashes every file,
// deduplicates by full SHA-256, and returns a Manifest. I/O failures on
// individual files are recorded in Manifest.Errors and do not abort the run.
func Ingest(source string, opts Options) (*pipeline.Manifest, error) {
	paths, err := enumerate(source, opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("intake: enumerate %q: %w", source, err)
	}

	m := &pipeline.Manifest{
		GeneratedAt: time.Now().UTC(),
		SourcePath:  source,
	}

	seen := make(map[string]string) // sha256 -> first-seen path

	for _, path := range paths {
		m.Summary.TotalScanned++

		info, statErr := os.Stat(path)
		if statErr != nil {
			m.Errors = append(m.Errors, pipeline.IntakeError{Name: filepath.Base(path), Message: statErr.Error()})
			continue
		}

		full, prefix, hashErr := hashFile(path)
		if hashErr != nil {
			m.Errors = append(m.Errors, pipeline.IntakeError{Name: filepath.Base(path), Message: hashErr.Error()})
			continue
		}

		if opts.DedupEnabled {
			if originalPath, dup := seen[full]; dup {
				m.Duplicates = append(m.Duplicates, pipeline.DuplicateEntry{
					Name:         filepath.Base(path),
					SHA256:       full,
					OriginalPath: originalPath,
				})
				continue
			}
			seen[full] = path
		}

		m.Files = append(m.Files, pipeline.SourceFile{
			Name:           filepath.Base(path),
			SourcePath:     path,
			Size:           info.Size(),
			Modified:       info.ModTime(),
			SHA256:         full,
			SHA256Prefix4K: prefix,
			Timestamp:      time.Now().UTC(),
		})
	}

	m.Summary.Registered = len(m.Files)
	m.Summary.Duplicates = len(m.Duplicates)
	m.Summary.Errors = len(m.Errors)

	return m, nil
}

// enumerate lists *.pdf entries under source, sorted lexicographically. If
// source is itself a PDF, it is the sole entry.
func enumerate(source string, recursive bool) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(source), ".pdf") {
			return nil, fmt.Errorf("not a PDF file: %s", source)
		}
		return []string{source}, nil
	}

	var out []string
	if recursive {
		walkErr := filepath.Walk(source, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
				out = append(out, path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	} else {
		entries, readErr := os.ReadDir(source)
		if readErr != nil {
			return nil, readErr
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				out = append(out, filepath.Join(source, e.Name()))
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

// hashFile computes the streaming full-file SHA-256 plus a SHA-256 over
// just the first 4096 bytes (the cheap cross-batch probing fingerprint).
func hashFile(path string) (full, prefix string, err error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from a directory walk under the user-supplied source
	if err != nil {
		return "", "", err
	}
	defer func() { _ = f.Close() }()

	prefixBuf := make([]byte, prefixHashBytes)
	n, readErr := io.ReadFull(f, prefixBuf)
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		return "", "", readErr
	}
	prefixSum := sha256.Sum256(prefixBuf[:n])

	if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
		return "", "", seekErr
	}

	h := sha256.New()
	if _, copyErr := io.Copy(h, f); copyErr != nil {
		return "", "", copyErr
	}

	return hex.EncodeToString(h.Sum(nil)), hex.EncodeToString(prefixSum[:]), nil
}

// ManifestFileName returns the deterministic manifest filename for a given
// generation date, per the persisted-layout contract
// intake/manifest-YYYY-MM-DD.json.
func ManifestFileName(generatedAt time.Time) string {
	return fmt.Sprintf("manifest-%s.json", generatedAt.Format("2006-01-02"))
}
