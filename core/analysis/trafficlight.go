package analysis

import (
	"fmt"
	"math"

	"github.com/veridoc/veridoc/model"
)

// ScoreConfig holds the traffic light thresholds as percentages.
type ScoreConfig struct {
	// GreenThreshold is the minimum calibrated confidence for a compliant
	// finding to be marked green.
	GreenThreshold float64
	// AmberThreshold is the confidence below which any finding requires
	// review regardless of status.
	AmberThreshold float64
}

// DefaultScoreConfig returns the standard thresholds.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		GreenThreshold: 85,
		AmberThreshold: 70,
	}
}

// ScoreFindings calibrates every finding, assigns traffic light statuses
// and aggregates them into a document verdict.
func ScoreFindings(findings []model.RawFinding, factors CalibrationFactors, config ScoreConfig) model.DocumentVerdict {
	scored := make([]model.CalibratedFinding, 0, len(findings))
	for _, finding := range findings {
		scored = append(scored, ScoreFinding(finding, factors, config))
	}
	return model.DocumentVerdict{
		OverallStatus: overallStatus(scored),
		Findings:      scored,
		Statistics:    verdictStatistics(scored),
	}
}

// ScoreFinding calibrates a single finding and derives its traffic light
// status. A non-compliant finding is red no matter how confident the
// check was.
func ScoreFinding(finding model.RawFinding, factors CalibrationFactors, config ScoreConfig) model.CalibratedFinding {
	calibration := Calibrate(finding, factors)
	pct := round2(calibration.Confidence * 100)

	status := model.StatusRed
	if finding.IsCompliant {
		if pct >= config.GreenThreshold {
			status = model.StatusGreen
		} else {
			status = model.StatusAmber
		}
	}

	return model.CalibratedFinding{
		RawFinding:           finding,
		CalibratedConfidence: pct,
		ConfidenceLevel:      calibration.Level,
		Explanation:          calibration.Explanation,
		TrafficLight:         status,
		Priority:             assignPriority(status, finding.IsCompliant, pct),
		RequiresReview:       status != model.StatusGreen || pct < config.AmberThreshold,
		StatusDescription:    statusDescription(status, finding.IsCompliant, pct),
	}
}

// assignPriority ranks a finding for review. A confident red means the
// document clearly fails the requirement, so it outranks an uncertain one.
func assignPriority(status model.TrafficLight, compliant bool, pct float64) model.Priority {
	switch {
	case status == model.StatusRed && pct >= 85:
		return model.PriorityCritical
	case status == model.StatusRed:
		return model.PriorityHigh
	case status == model.StatusAmber && !compliant:
		return model.PriorityHigh
	case status == model.StatusAmber:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// overallStatus reduces the findings by dominance: any red makes the
// document red, otherwise any amber makes it amber. A document with no
// findings cannot be cleared, so it lands on amber.
func overallStatus(findings []model.CalibratedFinding) model.TrafficLight {
	if len(findings) == 0 {
		return model.StatusAmber
	}
	status := model.StatusGreen
	for _, finding := range findings {
		switch finding.TrafficLight {
		case model.StatusRed:
			return model.StatusRed
		case model.StatusAmber:
			status = model.StatusAmber
		}
	}
	return status
}

func verdictStatistics(findings []model.CalibratedFinding) model.VerdictStatistics {
	stats := model.VerdictStatistics{Total: len(findings)}
	sum := 0.0
	for _, finding := range findings {
		switch finding.TrafficLight {
		case model.StatusGreen:
			stats.GreenCount++
		case model.StatusAmber:
			stats.AmberCount++
		case model.StatusRed:
			stats.RedCount++
		}
		if finding.RequiresReview {
			stats.RequiresReviewCount++
		}
		sum += finding.CalibratedConfidence
	}
	if stats.Total > 0 {
		stats.ComplianceRate = round2(float64(stats.GreenCount) / float64(stats.Total) * 100)
		stats.AverageConfidence = round2(sum / float64(stats.Total))
	}
	return stats
}

func statusDescription(status model.TrafficLight, compliant bool, pct float64) string {
	switch {
	case status == model.StatusGreen:
		return fmt.Sprintf("Compliant with high confidence (%.0f%%)", pct)
	case status == model.StatusAmber && compliant:
		return fmt.Sprintf("Appears compliant but requires professional review (%.0f%% confidence)", pct)
	case status == model.StatusAmber:
		return fmt.Sprintf("Potential non-compliance - requires professional review (%.0f%% confidence)", pct)
	case pct >= 85:
		return fmt.Sprintf("Non-compliant - immediate action required (%.0f%% confidence)", pct)
	default:
		return fmt.Sprintf("Likely non-compliant - professional review urgently required (%.0f%% confidence)", pct)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
