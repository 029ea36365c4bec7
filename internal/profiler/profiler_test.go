package profiler

import (
	"strings"
	"testing"

	"github.com/lexseg/lexseg/internal/config"
	"github.com/lexseg/lexseg/internal/pipeline"
)

func thresholds() config.ThresholdsConfig {
	return config.DefaultConfig().Thresholds
}

func TestProfilePageEmpty(t *testing.T) {
	p := ProfilePage(pipeline.Page{PageNumber: 1, Empty: true}, thresholds())
	if !p.Empty {
		t.Error("expected empty page to stay empty")
	}
}

func TestProfilePageCleanNotDegraded(t *testing.T) {
	text := strings.Repeat("O processo foi julgado procedente pela vara federal competente. ", 20)
	p := ProfilePage(pipeline.Page{PageNumber: 1, Text: text}, thresholds())
	if p.IsDegraded {
		t.Error("expected clean legal text page to not be degraded")
	}
}

func TestProfilePageGarbledIsDegraded(t *testing.T) {
	text := strings.Repeat("x~q z*w l¬k p8j zzZz a=b c6d ", 20)
	p := ProfilePage(pipeline.Page{PageNumber: 1, Text: text}, thresholds())
	if !p.IsDegraded {
		t.Error("expected garbled page to be degraded")
	}
}

func TestProfilePagesPropagation(t *testing.T) {
	clean := strings.Repeat("O processo foi julgado procedente pela vara federal competente. ", 20)
	garbled := strings.Repeat("x~q z*w l¬k p8j zzZz a=b c6d ", 20)

	pages := []pipeline.Page{
		{PageNumber: 1, Text: clean},
		{PageNumber: 2, Text: garbled},
		{PageNumber: 3, Text: garbled},
	}
	profiles := ProfilePages(pages, thresholds())
	if !profiles[0].IsDegraded {
		t.Error("expected propagation to mark the clean page degraded when majority is degraded")
	}
	if !profiles[0].Propagated {
		t.Error("expected the previously-clean page to record propagated=true")
	}
}

func TestAggregateDocumentMedian(t *testing.T) {
	profiles := []pipeline.PageProfile{
		{PageNumber: 1, ReadabilityScore: 90, NoiseLevel: pipeline.NoiseLow},
		{PageNumber: 2, ReadabilityScore: 10, NoiseLevel: pipeline.NoiseHigh, IsDegraded: true},
		{PageNumber: 3, ReadabilityScore: 85, NoiseLevel: pipeline.NoiseLow},
	}
	doc := AggregateDocument(profiles, thresholds())
	if doc.ReadabilityMed != 85 {
		t.Errorf("expected median readability 85, got %f", doc.ReadabilityMed)
	}
	if doc.NoiseLevel != pipeline.NoiseHigh {
		t.Errorf("expected worst-of noise level high, got %s", doc.NoiseLevel)
	}
	if !doc.HasTextLayer {
		t.Error("expected has_text_layer true when a clean page exists")
	}
	if !doc.IsMixedQuality {
		t.Error("expected mixed quality when both clean and degraded pages exist")
	}
}

func TestStripRepetitiveContentRemovesRecurringHeader(t *testing.T) {
	th := thresholds()
	header := "TRIBUNAL REGIONAL FEDERAL DA 1a REGIAO\n"
	pages := make([]pipeline.Page, 0, 5)
	for i := 1; i <= 5; i++ {
		pages = append(pages, pipeline.Page{
			PageNumber: i,
			Text:       header + strings.Repeat("conteúdo variável da página numero "+string(rune('0'+i))+". ", 10),
		})
	}
	stripped := StripRepetitiveContent(pages, th)
	for _, p := range stripped {
		if strings.Contains(p.Text, "TRIBUNAL REGIONAL FEDERAL") {
			t.Errorf("expected recurring header stripped from page %d", p.PageNumber)
		}
	}
}

func TestStripRepetitiveContentKeepsUniqueContent(t *testing.T) {
	th := thresholds()
	pages := []pipeline.Page{
		{PageNumber: 1, Text: "conteúdo único da primeira página do processo judicial."},
		{PageNumber: 2, Text: "texto diferente na segunda página, sem repetição."},
		{PageNumber: 3, Text: "terceira página com outro conteúdo próprio."},
	}
	stripped := StripRepetitiveContent(pages, th)
	if !strings.Contains(stripped[0].Text, "conteúdo único") {
		t.Error("expected non-recurring content to survive stripping")
	}
}
