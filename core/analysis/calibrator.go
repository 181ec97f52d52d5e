package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/veridoc/veridoc/model"
)

// CalibrationFactors carry document level context into confidence
// calibration. Both factors live in [0, 1].
type CalibrationFactors struct {
	// Completeness is the fraction of the document that was readable.
	Completeness float64
	// AgentMatch expresses how well the reviewing agent's specialism
	// fits the document.
	AgentMatch float64
}

// DefaultCalibrationFactors assume a fully readable document reviewed by
// a matching specialist.
func DefaultCalibrationFactors() CalibrationFactors {
	return CalibrationFactors{
		Completeness: 1.0,
		AgentMatch:   1.0,
	}
}

// Calibration is the adjusted confidence for a finding together with its
// band and a human readable explanation.
type Calibration struct {
	Confidence  float64
	Level       model.ConfidenceLevel
	Explanation string
}

// Calibrate adjusts a finding's base confidence by evidence quality,
// regulation clarity and document context. The result is clamped to
// [0.1, 0.99] so no finding ever claims certainty in either direction.
func Calibrate(finding model.RawFinding, factors CalibrationFactors) Calibration {
	quality := evidenceQuality(finding.Evidence)
	clarity := regulationClarity(finding)

	multiplier := 0.3*quality + 0.2*clarity + 0.2*factors.Completeness + 0.1*factors.AgentMatch + 0.2
	confidence := finding.BaseConfidence * multiplier
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 0.99 {
		confidence = 0.99
	}

	return Calibration{
		Confidence:  confidence,
		Level:       confidenceLevel(confidence),
		Explanation: explainCalibration(finding, quality, clarity, factors, confidence),
	}
}

// evidenceQuality scores the supporting evidence by count, variety of
// evidence types and average item confidence.
func evidenceQuality(evidence []model.Evidence) float64 {
	if len(evidence) == 0 {
		return 0.3
	}

	countScore := float64(len(evidence)) / 5.0
	if countScore > 1.0 {
		countScore = 1.0
	}

	types := map[model.EvidenceType]bool{}
	sum := 0.0
	for _, item := range evidence {
		types[item.Type] = true
		sum += item.Confidence
	}
	varietyScore := float64(len(types)) / 3.0
	if varietyScore > 1.0 {
		varietyScore = 1.0
	}

	return 0.4*countScore + 0.3*varietyScore + 0.3*sum/float64(len(evidence))
}

// regulationClarity scores how explicit the requirement is: a direct
// mention in the document, a recognised regulation label and a concrete
// numeric threshold in the title each add clarity.
func regulationClarity(finding model.RawFinding) float64 {
	clarity := 0.0
	if finding.RegulationMentioned {
		clarity += 0.4
	}
	if strings.Contains(finding.Regulation, "Part ") ||
		strings.Contains(finding.Regulation, "BS ") ||
		strings.Contains(finding.Regulation, "Eurocode") {
		clarity += 0.3
	}
	if strings.ContainsFunc(finding.Title, unicode.IsDigit) {
		clarity += 0.3
	}
	if clarity > 1.0 {
		clarity = 1.0
	}
	return clarity
}

// confidenceLevel bands a calibrated confidence.
func confidenceLevel(confidence float64) model.ConfidenceLevel {
	switch {
	case confidence >= 0.85:
		return model.ConfidenceHigh
	case confidence >= 0.70:
		return model.ConfidenceMedium
	case confidence >= 0.50:
		return model.ConfidenceLow
	default:
		return model.ConfidenceVeryLow
	}
}

// explainCalibration builds the human readable audit trail for a
// calibrated confidence.
func explainCalibration(finding model.RawFinding, quality, clarity float64, factors CalibrationFactors, confidence float64) string {
	parts := []string{
		fmt.Sprintf("Base AI confidence: %d%%", int(finding.BaseConfidence*100)),
	}

	switch {
	case quality >= 0.7:
		parts = append(parts, "Strong supporting evidence found")
	case quality >= 0.4:
		parts = append(parts, "Moderate supporting evidence found")
	default:
		parts = append(parts, "Limited supporting evidence")
	}

	switch {
	case clarity >= 0.7:
		parts = append(parts, "Clear regulation requirements")
	case clarity >= 0.4:
		parts = append(parts, "Somewhat clear regulation requirements")
	default:
		parts = append(parts, "Unclear or implicit regulation requirements")
	}

	if factors.Completeness < 0.8 {
		parts = append(parts, fmt.Sprintf("Document is incomplete (%d%%)", int(factors.Completeness*100)))
	}
	if factors.AgentMatch < 0.8 {
		parts = append(parts, "Agent may not be fully specialized for this document type")
	}

	parts = append(parts, fmt.Sprintf("Final calibrated confidence: %d%%", int(confidence*100)))
	return strings.Join(parts, " | ")
}
