package analysis

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/veridoc/veridoc/model"
)

// valuePatterns extract the numeric value for a constraint metric from
// document text. Metrics without a dedicated pattern fall back to
// defaultValuePattern.
var valuePatterns = map[string]*regexp.Regexp{
	"fire_rating_minutes": regexp.MustCompile(`(?i)(\d+)\s*(?:minute|min)\s*fire\s*(?:rating|resistance)`), // 60 minute fire rating
	"u_value":             regexp.MustCompile(`(?i)U[-\s]?value[s]?[\s:=]+(\d+\.?\d*)`),                    // U-value: 0.18
	"thickness_mm":        regexp.MustCompile(`(?i)(\d+)\s*mm\s*thick`),                                    // 100mm thick
	"load_capacity_kn":    regexp.MustCompile(`(?i)(\d+\.?\d*)\s*kN`),                                      // 2.5 kN
	"height_m":            regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:m|metre|meter)`),                       // 4.5 m
}

var defaultValuePattern = regexp.MustCompile(`(\d+\.?\d*)`)

// Checker evaluates requirement templates against document text and
// produces raw, uncalibrated findings.
type Checker struct {
	log      *slog.Logger
	evidence EvidenceConfig
}

// NewChecker creates a new Checker with the default evidence
// extraction settings.
func NewChecker(logger *slog.Logger) *Checker {
	return &Checker{
		log:      logger,
		evidence: DefaultEvidenceConfig(),
	}
}

// SetEvidenceConfig replaces the evidence extraction settings used for
// subsequent checks.
func (c *Checker) SetEvidenceConfig(config EvidenceConfig) {
	c.evidence = config
}

// CheckDiscipline evaluates every requirement tagged with the given
// discipline against the document text. Requirements that fail validation
// are skipped with a warning.
func (c *Checker) CheckDiscipline(text string, discipline model.Discipline, requirements []model.Requirement) []model.RawFinding {
	findings := []model.RawFinding{}
	for _, requirement := range requirements {
		if requirement.Discipline != discipline {
			continue
		}
		if err := requirement.Validate(); err != nil {
			c.log.Warn(
				"Skipping invalid requirement template",
				slog.String("id", requirement.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		findings = append(findings, c.CheckRequirement(text, requirement))
	}
	return findings
}

// CheckRequirement evaluates a single requirement against the document
// text. A requirement is compliant when its regulation is mentioned, at
// least half of its keywords are present and every value constraint is
// satisfied.
func (c *Checker) CheckRequirement(text string, requirement model.Requirement) model.RawFinding {
	textLower := strings.ToLower(text)

	mentioned := requirement.Regulation != "" &&
		strings.Contains(textLower, strings.ToLower(requirement.Regulation))

	found := []string{}
	for _, keyword := range requirement.Keywords {
		if strings.Contains(textLower, strings.ToLower(keyword)) {
			found = append(found, keyword)
		}
	}
	fraction := 0.0
	if len(requirement.Keywords) > 0 {
		fraction = float64(len(found)) / float64(len(requirement.Keywords))
	}

	satisfied := constraintsSatisfied(text, requirement.Constraints)

	compliant := mentioned &&
		float64(len(found)) >= float64(len(requirement.Keywords))*0.5 &&
		satisfied

	confidence := 0.0
	if mentioned {
		confidence += 0.3
	}
	confidence += 0.5 * fraction
	if len(requirement.Constraints) > 0 && satisfied {
		confidence += 0.2
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return model.RawFinding{
		RequirementID:       requirement.ID,
		Title:               requirement.Title,
		Discipline:          requirement.Discipline,
		Regulation:          requirement.Regulation,
		RegulationMentioned: mentioned,
		IsCompliant:         compliant,
		BaseConfidence:      confidence,
		KeywordsFound:       found,
		Evidence:            ExtractEvidence(text, requirement, c.evidence),
	}
}

// constraintsSatisfied reports whether every constraint is met. A
// requirement without constraints is trivially satisfied.
func constraintsSatisfied(text string, constraints []model.ValueConstraint) bool {
	for _, constraint := range constraints {
		if !constraintSatisfied(text, constraint) {
			return false
		}
	}
	return true
}

// constraintSatisfied reports whether at least one value extracted for the
// constraint's metric meets every bound that is set.
func constraintSatisfied(text string, constraint model.ValueConstraint) bool {
	pattern, ok := valuePatterns[constraint.Metric]
	if !ok {
		pattern = defaultValuePattern
	}
	for _, match := range pattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		if constraint.Min != nil && value < *constraint.Min {
			continue
		}
		if constraint.Max != nil && value > *constraint.Max {
			continue
		}
		if constraint.Exact != nil && value != *constraint.Exact {
			continue
		}
		return true
	}
	return false
}
