package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/veridoc/veridoc/core/analysis"
	"github.com/veridoc/veridoc/core/classify"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
)

const sampleSpecification = `Structural and Fire Safety Specification
Project: Riverside Office Development

Section 1 - Structural Design

All structural steelwork is designed to Eurocode 3 with concrete elements
to Eurocode 2, in accordance with Part A1 of the Building Regulations.
Beams carry an imposed load of 3.5 kN/m2 with dead load and wind load
combinations verified. Design strength of reinforcement is 500 N/mm2.

Section 2 - Fire Safety

The building addresses Part B1 with protected means of escape. Automatic
fire detection to BS 5839 category L2 is installed throughout the building.
Travel distances are within the limits of Approved Document B. Compartment
floors achieve a 60 minute fire rating under Part B3, with cavity barriers
and fire stopping at all junctions.

Section 3 - Thermal Performance

External walls achieve U-value: 0.18 W/m2K with 150mm mineral wool
insulation, limiting thermal bridging at junctions in line with Part L.`

func main() {
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelWarn},
	}))

	// Classify the document first
	classification := classify.Classify(sampleSpecification, "riverside_specification.pdf")

	fmt.Println("=== Classification ===")
	fmt.Printf("Document type: %s\n", classification.DocumentType)
	fmt.Printf("Confidence:    %.2f\n", classification.Confidence)
	fmt.Printf("Disciplines:   %s\n", joinDisciplines(classification.Disciplines))
	fmt.Printf("Regulations:   %s\n", strings.Join(classification.Regulations, ", "))
	fmt.Printf("Agents:        %s\n", joinDisciplines(classification.Agents))

	// Run every routed discipline against the built-in requirement templates
	checker := analysis.NewChecker(logger)
	requirements := analysis.BuiltinRequirements()

	var findings []model.RawFinding
	for _, agent := range classification.Agents {
		findings = append(findings, checker.CheckDiscipline(sampleSpecification, agent, requirements)...)
	}

	// Calibrate and aggregate into a document verdict
	verdict := analysis.ScoreFindings(findings, analysis.DefaultCalibrationFactors(), analysis.DefaultScoreConfig())

	fmt.Println("\n=== Compliance Verdict ===")
	fmt.Printf("Overall status: %s\n", verdict.OverallStatus)
	fmt.Printf("Checked %d requirements: %d green, %d amber, %d red\n",
		verdict.Statistics.Total, verdict.Statistics.GreenCount, verdict.Statistics.AmberCount, verdict.Statistics.RedCount)

	fmt.Println("\nFindings:")
	fmt.Printf("%-14s %-8s %-10s %-5s %s\n", "Requirement", "Status", "Priority", "Conf", "Title")
	for _, finding := range verdict.Findings {
		fmt.Printf("%-14s %-8s %-10s %3.0f%%  %s\n",
			finding.RequirementID, finding.TrafficLight, finding.Priority,
			finding.CalibratedConfidence, finding.Title)
	}

	// Show the evidence behind the strongest finding
	for _, finding := range verdict.Findings {
		if finding.TrafficLight == model.StatusGreen && len(finding.Evidence) > 0 {
			fmt.Printf("\nEvidence for %s:\n", finding.RequirementID)
			for _, item := range finding.Evidence {
				quote := item.Quote
				if len(quote) > 100 {
					quote = quote[:100] + "..."
				}
				fmt.Printf("  - [%s] %s\n", item.Type, quote)
			}
			break
		}
	}

	fmt.Println("\nAnalysis example completed successfully!")
}

func joinDisciplines(disciplines []model.Discipline) string {
	names := make([]string, 0, len(disciplines))
	for _, discipline := range disciplines {
		names = append(names, string(discipline))
	}
	return strings.Join(names, ", ")
}
