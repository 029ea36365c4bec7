// Package profiler computes per-page and per-document text-quality
// assessments: the readability score and word-garbage score from
// internal/textquality, the noise/degraded classification, and the
// repetitive-content stripping pass that removes recurring PJe chrome
// before segmentation.
package profiler

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lexseg/lexseg/internal/config"
	"github.com/lexseg/lexseg/internal/pipeline"
	"github.com/lexseg/lexseg/internal/textquality"
)

// ProfilePage scores one extracted page and flags it degraded when any of
// four conditions holds: low readability, a noise level other than low, a
// high garbage score, or too few characters.
func ProfilePage(page pipeline.Page, th config.ThresholdsConfig) pipeline.PageProfile {
	if page.Empty || strings.TrimSpace(page.Text) == "" {
		return pipeline.PageProfile{
			PageNumber: page.PageNumber,
			Empty:      true,
			NoiseLevel: pipeline.NoiseHigh,
		}
	}

	readability := textquality.ReadabilityScore(page.Text)
	garbage := textquality.WordGarbageScore(page.Text)
	tier := textquality.Tier(readability, th.ReadabilityTierThresholds)
	charCount := len([]rune(page.Text))

	noise := noiseLevel(garbage)
	degraded := readability < th.DegradedReadabilityBelow ||
		noise != pipeline.NoiseLow ||
		garbage >= th.DegradedGarbageAtOrAbove ||
		charCount < th.DegradedMinCharCount

	return pipeline.PageProfile{
		PageNumber:       page.PageNumber,
		ReadabilityScore: readability,
		NoiseLevel:       noise,
		WordGarbageScore: garbage,
		QualityTier:      tier,
		CharCount:        charCount,
		IsDegraded:       degraded,
		Empty:            false,
	}
}

func noiseLevel(garbage float64) pipeline.NoiseLevel {
	switch {
	case garbage >= 0.4:
		return pipeline.NoiseHigh
	case garbage >= 0.15:
		return pipeline.NoiseMedium
	default:
		return pipeline.NoiseLow
	}
}

// ProfilePages scores every page and then propagates degradation document-
// wide when the fraction of degraded non-empty pages meets the configured
// ratio: a document that is mostly bad text should not let a clean minority
// of pages escape OCR routing.
func ProfilePages(pages []pipeline.Page, th config.ThresholdsConfig) []pipeline.PageProfile {
	profiles := make([]pipeline.PageProfile, len(pages))
	for i, p := range pages {
		profiles[i] = ProfilePage(p, th)
	}

	nonEmpty := 0
	degraded := 0
	for _, p := range profiles {
		if p.Empty {
			continue
		}
		nonEmpty++
		if p.IsDegraded {
			degraded++
		}
	}
	if nonEmpty == 0 {
		return profiles
	}
	ratio := float64(degraded) / float64(nonEmpty)
	if ratio < th.DegradedRatioPropagate {
		return profiles
	}
	for i := range profiles {
		if profiles[i].Empty {
			continue
		}
		if !profiles[i].IsDegraded {
			profiles[i].Propagated = true
		}
		profiles[i].IsDegraded = true
	}
	return profiles
}

// AggregateDocument builds a DocumentProfile from per-page profiles using
// median readability, the worst observed noise level, and has_text_layer
// true iff any page is non-empty and not degraded.
func AggregateDocument(profiles []pipeline.PageProfile, th config.ThresholdsConfig) pipeline.DocumentProfile {
	doc := pipeline.DocumentProfile{PageProfiles: profiles}

	var readabilities []float64
	worstNoise := pipeline.NoiseLow
	for _, p := range profiles {
		if p.Empty {
			continue
		}
		readabilities = append(readabilities, p.ReadabilityScore)
		if noiseRank(p.NoiseLevel) > noiseRank(worstNoise) {
			worstNoise = p.NoiseLevel
		}
		if p.IsDegraded {
			doc.DegradedPages = append(doc.DegradedPages, p.PageNumber)
			doc.DegradedCount++
		} else {
			doc.CleanCount++
			doc.HasTextLayer = true
		}
	}

	doc.NoiseLevel = worstNoise
	doc.ReadabilityMed = median(readabilities)
	doc.QualityTier = textquality.Tier(doc.ReadabilityMed, th.ReadabilityTierThresholds)
	doc.IsMixedQuality = doc.DegradedCount > 0 && doc.CleanCount > 0
	return doc
}

func noiseRank(n pipeline.NoiseLevel) int {
	switch n {
	case pipeline.NoiseHigh:
		return 2
	case pipeline.NoiseMedium:
		return 1
	default:
		return 0
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// --- repetitive-content stripping (§4.3) ---

var (
	advogadosLineRe   = regexp.MustCompile(`(?i)advogad|abvoga|advdga`)
	invertedFooterRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)oci̇n[oó]rtele[ .]?ossecorp`),
		regexp.MustCompile(`(?i)odacifirec|gãp[ .]?\d+[ .]?mun`),
	}
	normalizeNonAlnumRe = regexp.MustCompile(`[^a-z0-9À-ÿ]+`)
)

// StripRepetitiveContent removes per-page header/footer chrome that recurs
// across at least RepetitiveThreshold of non-empty pages, the fuzzy
// ADVOGADOS header block, the always-on PJe footer, and an inverted PJe
// footer garbled at the top of a rotated page. Run once, after extraction,
// before segmentation.
func StripRepetitiveContent(pages []pipeline.Page, th config.ThresholdsConfig) []pipeline.Page {
	fingerprintCounts := map[string]int{}
	nonEmpty := 0
	pageFingerprints := make([]map[string]bool, len(pages))

	for i, p := range pages {
		pageFingerprints[i] = map[string]bool{}
		if p.Empty {
			continue
		}
		nonEmpty++
		lines := strings.Split(p.Text, "\n")
		head := headTail(lines, th.HeaderLines, true)
		tail := headTail(lines, th.FooterLines, false)
		for _, l := range append(head, tail...) {
			fp := normalizeLine(l)
			if fp == "" {
				continue
			}
			if !pageFingerprints[i][fp] {
				pageFingerprints[i][fp] = true
				fingerprintCounts[fp]++
			}
		}
	}

	recurring := map[string]bool{}
	if nonEmpty > 0 {
		for fp, count := range fingerprintCounts {
			if float64(count)/float64(nonEmpty) >= th.RepetitiveThreshold {
				recurring[fp] = true
			}
		}
	}

	out := make([]pipeline.Page, len(pages))
	for i, p := range pages {
		out[i] = p
		if p.Empty {
			continue
		}
		out[i].Text = stripPage(p.Text, recurring)
	}
	return out
}

func headTail(lines []string, n int, head bool) []string {
	if n <= 0 || len(lines) == 0 {
		return nil
	}
	if n > len(lines) {
		n = len(lines)
	}
	if head {
		return lines[:n]
	}
	return lines[len(lines)-n:]
}

func normalizeLine(line string) string {
	normalized := normalizeNonAlnumRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(line)), "")
	if len([]rune(normalized)) < 4 {
		return ""
	}
	return normalized
}

func stripPage(text string, recurring map[string]bool) string {
	lines := strings.Split(text, "\n")
	var kept []string
	for _, l := range lines {
		if recurring[normalizeLine(l)] {
			continue
		}
		kept = append(kept, l)
	}
	stripped := strings.Join(kept, "\n")
	stripped = stripAdvogadosBlock(stripped)
	stripped = textquality.StripPJeFooterBeforeScoring(stripped)
	stripped = stripInvertedFooter(stripped)
	return stripped
}

func stripAdvogadosBlock(text string) string {
	lines := strings.Split(text, "\n")
	limit := 20
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := 0; i < limit; i++ {
		if advogadosLineRe.MatchString(lines[i]) {
			end := i + 2
			if end >= len(lines) {
				end = len(lines) - 1
			}
			return strings.Join(lines[end+1:], "\n")
		}
	}
	return text
}

func stripInvertedFooter(text string) string {
	lines := strings.Split(text, "\n")
	limit := 20
	if limit > len(lines) {
		limit = len(lines)
	}
	var kept []string
	for i, l := range lines {
		if i < limit && matchesInvertedFooter(l) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

func matchesInvertedFooter(line string) bool {
	for _, re := range invertedFooterRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
