package analysis

import (
	"regexp"
	"strings"

	"github.com/veridoc/veridoc/model"
)

// EvidenceConfig bounds how much supporting text is extracted per finding.
type EvidenceConfig struct {
	// ContextWindow is the number of characters quoted on either side of
	// a match.
	ContextWindow int
	// MaxItems caps the total number of evidence items per finding.
	MaxItems int
}

// DefaultEvidenceConfig returns the standard extraction bounds.
func DefaultEvidenceConfig() EvidenceConfig {
	return EvidenceConfig{
		ContextWindow: 200,
		MaxItems:      3,
	}
}

// specPatterns match technical specification values, checked in order.
var specPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)U[-\s]?value[s]?[\s:=]+(\d+\.?\d*)\s*W/m²K`),         // U-value: 0.18 W/m²K
	regexp.MustCompile(`(?i)(\d+)\s*(?:minute|min|hour|hr)\s*fire\s*resistance`), // 60 minute fire resistance
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*kN/m²`),                                // 2.5 kN/m²
	regexp.MustCompile(`(?i)R[-\s]?value[s]?[\s:=]+(\d+\.?\d*)`),                 // R-value: 4.5
	regexp.MustCompile(`(?i)(\d+)\s*mm\s*thick`),                                 // 100mm thick
}

// calculationPattern matches explicit calculation results, e.g. "M = 42.5 kNm".
var calculationPattern = regexp.MustCompile(`([A-Za-z\s]+)\s*=\s*(\d+\.?\d*)\s*([A-Za-z/²³]+)`)

// ExtractEvidence collects quoted passages supporting a requirement check,
// most specific first: direct regulation references, then keyword matches,
// then technical values and calculation results. The result is capped at
// config.MaxItems.
func ExtractEvidence(text string, requirement model.Requirement, config EvidenceConfig) []model.Evidence {
	items := []model.Evidence{}

	if requirement.Regulation != "" {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(requirement.Regulation))
		for _, loc := range pattern.FindAllStringIndex(text, 2) {
			items = append(items, model.Evidence{
				Type:            model.EvidenceRegulationReference,
				Quote:           contextQuote(text, loc[0], loc[1], config.ContextWindow),
				HighlightedText: requirement.Regulation,
				PageNumber:      estimatePage(loc[0]),
				Confidence:      0.95,
			})
		}
	}

	if budget := config.MaxItems - len(items); budget > 0 {
		items = append(items, keywordEvidence(text, requirement.Keywords, budget, config)...)
	}

	items = append(items, specificationEvidence(text, config)...)

	if requirement.RequiresCalculation {
		for _, loc := range calculationPattern.FindAllStringIndex(text, 2) {
			items = append(items, model.Evidence{
				Type:            model.EvidenceCalculation,
				Quote:           contextQuote(text, loc[0], loc[1], config.ContextWindow),
				HighlightedText: text[loc[0]:loc[1]],
				PageNumber:      estimatePage(loc[0]),
				Confidence:      0.80,
			})
		}
	}

	if len(items) > config.MaxItems {
		items = items[:config.MaxItems]
	}
	return items
}

// keywordEvidence collects up to budget keyword matches in keyword order.
func keywordEvidence(text string, keywords []string, budget int, config EvidenceConfig) []model.Evidence {
	items := []model.Evidence{}
	for _, keyword := range keywords {
		remaining := budget - len(items)
		if remaining <= 0 {
			break
		}
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword))
		for _, loc := range pattern.FindAllStringIndex(text, remaining) {
			items = append(items, model.Evidence{
				Type:            model.EvidenceKeywordMatch,
				Quote:           contextQuote(text, loc[0], loc[1], config.ContextWindow),
				HighlightedText: keyword,
				PageNumber:      estimatePage(loc[0]),
				Confidence:      0.75,
			})
		}
	}
	return items
}

// specificationEvidence collects up to two technical specification values
// across all patterns.
func specificationEvidence(text string, config EvidenceConfig) []model.Evidence {
	items := []model.Evidence{}
	for _, pattern := range specPatterns {
		remaining := 2 - len(items)
		if remaining <= 0 {
			break
		}
		for _, loc := range pattern.FindAllStringIndex(text, remaining) {
			items = append(items, model.Evidence{
				Type:            model.EvidenceTechnicalSpec,
				Quote:           contextQuote(text, loc[0], loc[1], config.ContextWindow),
				HighlightedText: text[loc[0]:loc[1]],
				PageNumber:      estimatePage(loc[0]),
				Confidence:      0.90,
			})
		}
	}
	return items
}

// contextQuote returns the match surrounded by up to window characters on
// each side, trimmed of leading and trailing whitespace.
func contextQuote(text string, start, end, window int) string {
	from := start - window
	if from < 0 {
		from = 0
	}
	to := end + window
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}

// estimatePage converts a character offset into an approximate page
// number, assuming around 3000 characters per page.
func estimatePage(offset int) int {
	return offset/3000 + 1
}
