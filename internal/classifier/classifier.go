// Package classifier implements the L1 whitelist classifier: an ordered
// table of regex rules scored against a document's full text, heading, and
// tail, a disambiguation pass that penalizes entity-mention-only matches,
// and a specificity bonus for a fixed set of more-specific/more-generic
// type pairs. The rule table, disambiguation table, and type whitelist are
// data files (data/*.yaml), not code, per the system's design notes.
package classifier

import (
	_ "embed"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lexseg/lexseg/internal/pipeline"
)

//go:embed data/valid_types.yaml
var validTypesYAML []byte

//go:embed data/rules.yaml
var rulesYAML []byte

//go:embed data/disambiguation.yaml
var disambiguationYAML []byte

type rawValidTypes struct {
	Types             []string `yaml:"types"`
	SpecificityBonus  []struct {
		Specific string `yaml:"specific"`
		General  string `yaml:"general"`
	} `yaml:"specificity_bonus"`
}

type rawRules struct {
	Rules []struct {
		Type     string   `yaml:"type"`
		Weight   float64  `yaml:"weight"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"rules"`
}

type rawDisambiguation struct {
	Entries []struct {
		Type         string   `yaml:"type"`
		Structural   []string `yaml:"structural"`
		EntityOnly   []string `yaml:"entity_only"`
	} `yaml:"entries"`
}

// rule is one compiled classifier rule.
type rule struct {
	Type     string
	Weight   float64
	Patterns []*regexp.Regexp
}

// disambiguationRule is one compiled disambiguation-table entry.
type disambiguationRule struct {
	Type       string
	Structural []*regexp.Regexp
	EntityOnly []*regexp.Regexp
}

var (
	validTypes       map[string]bool
	specificityPairs []specificityPair
	rules            []rule
	disambiguation   map[string]disambiguationRule
)

type specificityPair struct {
	Specific, General string
}

func init() {
	var rawTypes rawValidTypes
	if err := yaml.Unmarshal(validTypesYAML, &rawTypes); err != nil {
		panic("classifier: invalid valid_types.yaml: " + err.Error())
	}
	validTypes = make(map[string]bool, len(rawTypes.Types))
	for _, t := range rawTypes.Types {
		validTypes[t] = true
	}
	for _, p := range rawTypes.SpecificityBonus {
		specificityPairs = append(specificityPairs, specificityPair{Specific: p.Specific, General: p.General})
	}

	var rawR rawRules
	if err := yaml.Unmarshal(rulesYAML, &rawR); err != nil {
		panic("classifier: invalid rules.yaml: " + err.Error())
	}
	for _, r := range rawR.Rules {
		compiled := rule{Type: r.Type, Weight: r.Weight}
		for _, p := range r.Patterns {
			compiled.Patterns = append(compiled.Patterns, regexp.MustCompile(p))
		}
		rules = append(rules, compiled)
	}

	var rawD rawDisambiguation
	if err := yaml.Unmarshal(disambiguationYAML, &rawD); err != nil {
		panic("classifier: invalid disambiguation.yaml: " + err.Error())
	}
	disambiguation = make(map[string]disambiguationRule, len(rawD.Entries))
	for _, e := range rawD.Entries {
		d := disambiguationRule{Type: e.Type}
		for _, p := range e.Structural {
			d.Structural = append(d.Structural, regexp.MustCompile(p))
		}
		for _, p := range e.EntityOnly {
			d.EntityOnly = append(d.EntityOnly, regexp.MustCompile(p))
		}
		disambiguation[e.Type] = d
	}
}

// IsValidType reports whether t is in the VALID_TYPES whitelist.
func IsValidType(t string) bool { return validTypes[t] }

var pjeBlockHeadingLines = 5 // classifier needs more heading signal than the segmenter's 3

// Classify scores every rule against text's full, heading, and tail scopes
// and returns the winning classification, collapsing invalid or empty
// results to "unknown". Classification is idempotent: re-running on the
// same text and an already-valid primary_type returns the same result.
func Classify(text string) pipeline.Classification {
	stripped := stripPJeBlocks(text, pjeBlockHeadingLines)
	heading := meaningfulLines(stripped, true, 5)
	tail := meaningfulLines(stripped, false, 3)
	headingText := strings.Join(heading, "\n")
	tailText := strings.Join(tail, "\n")

	type scored struct {
		rule           rule
		confidence     float64
		indicators     []string
		disambiguation string
	}
	var best scored
	var second scored
	reclassified := false

	for _, r := range rules {
		conf, indicators := scoreRule(r, stripped, headingText, tailText)
		if conf <= 0 {
			continue
		}
		conf, reason := applyDisambiguation(r.Type, conf, stripped, headingText, indicators)
		conf, bonusedPast := applySpecificityBonus(r.Type, conf, best.rule.Type)
		if conf > best.confidence {
			if bonusedPast {
				reclassified = true
			}
			second = best
			best = scored{rule: r, confidence: conf, indicators: indicators, disambiguation: reason}
		} else if conf > second.confidence {
			second = scored{rule: r, confidence: conf, indicators: indicators, disambiguation: reason}
		}
	}

	if best.confidence <= 0 || !IsValidType(best.rule.Type) {
		return pipeline.Classification{PrimaryType: "unknown", Confidence: 0}
	}

	result := pipeline.Classification{
		PrimaryType:    best.rule.Type,
		Confidence:     clamp01(best.confidence),
		Indicators:     best.indicators,
		Disambiguation: best.disambiguation,
		Reclassified:   reclassified,
	}
	if best.confidence < 0.80 && second.confidence > 0 && IsValidType(second.rule.Type) {
		result.SecondaryType = second.rule.Type
		result.SecondaryConfidence = clamp01(second.confidence)
	}
	return result
}

func scoreRule(r rule, full, heading, tail string) (float64, []string) {
	uniqueBody := 0
	var indicators []string
	headingHits := 0
	tailHits := 0

	for _, p := range r.Patterns {
		matchedBody := p.MatchString(full)
		if matchedBody {
			uniqueBody++
			indicators = append(indicators, p.String())
		}
		if p.MatchString(heading) {
			headingHits++
		}
		if p.MatchString(tail) {
			tailHits++
		}
	}
	if uniqueBody == 0 {
		return 0, nil
	}

	headingBonus := 0.15 * float64(headingHits)
	if headingBonus > 0.30 {
		headingBonus = 0.30
	}
	tailBonus := 0.10 * float64(tailHits)
	if tailBonus > 0.20 {
		tailBonus = 0.20
	}

	base := float64(uniqueBody)/float64(len(r.Patterns))*r.Weight + headingBonus + tailBonus
	return clamp01(base), indicators
}

// applyDisambiguation penalizes a match whose indicators are exclusively
// entity mentions, or whose structural evidence never reached the heading,
// and names the penalty applied (if any) for the classification record.
func applyDisambiguation(typ string, conf float64, full, heading string, indicators []string) (float64, string) {
	d, ok := disambiguation[typ]
	if !ok {
		return conf, ""
	}

	structuralInBody := false
	for _, p := range d.Structural {
		if p.MatchString(full) {
			structuralInBody = true
			break
		}
	}

	if !structuralInBody {
		onlyEntity := len(indicators) > 0
		for _, ind := range indicators {
			if !matchesAny(ind, d.EntityOnly) {
				onlyEntity = false
				break
			}
		}
		if onlyEntity {
			return conf * 0.30, "entity-mention-only"
		}
	}

	structuralInHeading := false
	for _, p := range d.Structural {
		if p.MatchString(heading) {
			structuralInHeading = true
			break
		}
	}
	if structuralInBody && !structuralInHeading {
		return conf * 0.70, "structural-not-in-heading"
	}
	return conf, ""
}

func matchesAny(pattern string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.String() == pattern {
			return true
		}
	}
	return false
}

// applySpecificityBonus rewards a more-specific type over the currently
// leading more-general one; the bool reports whether this candidate's bonus
// came from displacing that leader, for the classification's Reclassified flag.
func applySpecificityBonus(typ string, conf float64, previousWinnerType string) (float64, bool) {
	for _, pair := range specificityPairs {
		if pair.Specific == typ && pair.General == previousWinnerType {
			return clamp01(conf + 0.05), true
		}
	}
	return conf, false
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

// --- PJe block stripping (§9 asymmetry vs segmenter's 3-line heading) ---

var pjeBlockPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)processo judicial eletrônico`),
	regexp.MustCompile(`(?i)num\.\s*\d+\s*-\s*p[aá]g`),
	regexp.MustCompile(`(?i)assinado eletronicamente`),
}

// stripPJeBlocks removes PJe chrome lines found within the first
// headingLines lines (the classifier uses 5 here, deliberately more than
// the segmenter's 3, because the classifier needs more heading signal to
// score reliably while the segmenter needs fewer false boundary positives).
func stripPJeBlocks(text string, headingLines int) string {
	lines := strings.Split(text, "\n")
	limit := headingLines
	if limit > len(lines) {
		limit = len(lines)
	}
	var kept []string
	for i, l := range lines {
		if i < limit && matchesAnyRe(l, pjeBlockPatterns) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

func matchesAnyRe(line string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// meaningfulLines returns the first (head=true) or last (head=false) n
// non-blank, non-trivial lines of text.
func meaningfulLines(text string, head bool, n int) []string {
	var meaningful []string
	for _, l := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(l)
		if len(trimmed) < 3 {
			continue
		}
		meaningful = append(meaningful, trimmed)
	}
	if head {
		if n > len(meaningful) {
			n = len(meaningful)
		}
		return meaningful[:n]
	}
	if n > len(meaningful) {
		n = len(meaningful)
	}
	return meaningful[len(meaningful)-n:]
}
