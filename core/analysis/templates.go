package analysis

import (
	"log/slog"
	"os"

	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
	"gopkg.in/yaml.v3"
)

func bound(v float64) *float64 {
	return &v
}

// BuiltinRequirements returns the built-in requirement templates covering
// the key Approved Document obligations per discipline. Callers own the
// returned slice.
func BuiltinRequirements() []model.Requirement {
	return []model.Requirement{
		{
			ID:         "fire-b1",
			Discipline: model.DisciplineFireSafety,
			Regulation: "Part B1",
			Title:      "Means of warning and escape",
			Keywords:   []string{"means of escape", "fire detection", "escape route", "travel distance"},
		},
		{
			ID:         "fire-b2",
			Discipline: model.DisciplineFireSafety,
			Regulation: "Part B2",
			Title:      "Internal fire spread (linings)",
			Keywords:   []string{"linings", "fire resistance", "thermoplastic"},
		},
		{
			ID:         "fire-b3",
			Discipline: model.DisciplineFireSafety,
			Regulation: "Part B3",
			Title:      "Internal fire spread (structure)",
			Keywords:   []string{"compartmentation", "fire resistance", "cavity barrier", "fire stopping"},
			Constraints: []model.ValueConstraint{
				{Metric: "fire_rating_minutes", Min: bound(30)},
			},
		},
		{
			ID:         "fire-b4",
			Discipline: model.DisciplineFireSafety,
			Regulation: "Part B4",
			Title:      "External fire spread",
			Keywords:   []string{"external wall", "roof covering", "space separation"},
		},
		{
			ID:         "fire-b5",
			Discipline: model.DisciplineFireSafety,
			Regulation: "Part B5",
			Title:      "Access and facilities for the fire service",
			Keywords:   []string{"vehicle access", "fire main", "hydrant", "smoke vent"},
		},
		{
			ID:                  "struct-a1",
			Discipline:          model.DisciplineStructuralEngineering,
			Regulation:          "Part A1",
			Title:               "Loading",
			Keywords:            []string{"dead load", "imposed load", "wind load"},
			RequiresCalculation: true,
			Constraints: []model.ValueConstraint{
				{Metric: "load_capacity_kn", Min: bound(1.5)},
			},
		},
		{
			ID:                  "struct-ec2",
			Discipline:          model.DisciplineStructuralEngineering,
			Regulation:          "Eurocode 2",
			Title:               "Concrete design to Eurocode 2",
			Keywords:            []string{"concrete", "reinforcement", "design strength"},
			RequiresCalculation: true,
		},
		{
			ID:         "envelope-l1",
			Discipline: model.DisciplineBuildingEnvelope,
			Regulation: "Part L",
			Title:      "Limiting fabric U-value 0.26 W/m²K",
			Keywords:   []string{"u-value", "insulation", "thermal bridging"},
			Constraints: []model.ValueConstraint{
				{Metric: "u_value", Max: bound(0.26)},
			},
		},
		{
			ID:         "access-m1",
			Discipline: model.DisciplineAccessibility,
			Regulation: "Part M",
			Title:      "Access and use of buildings",
			Keywords:   []string{"accessible", "wheelchair", "ramp"},
		},
		{
			ID:         "electrical-p1",
			Discipline: model.DisciplineElectricalServices,
			Regulation: "Part P",
			Title:      "Electrical safety in dwellings",
			Keywords:   []string{"electrical installation", "circuit", "consumer unit"},
		},
		{
			ID:         "mech-f1",
			Discipline: model.DisciplineMechanicalServices,
			Regulation: "Part F",
			Title:      "Means of ventilation",
			Keywords:   []string{"ventilation", "air supply", "extract"},
		},
		{
			ID:         "mech-h1",
			Discipline: model.DisciplineMechanicalServices,
			Regulation: "Part H1",
			Title:      "Foul water drainage",
			Keywords:   []string{"drainage", "foul water", "pipework"},
		},
		{
			ID:         "hs-cdm",
			Discipline: model.DisciplineHealthSafety,
			Regulation: "CDM Regulations 2015",
			Title:      "Construction phase planning",
			Keywords:   []string{"construction phase plan", "principal contractor", "risk assessment"},
		},
		{
			ID:         "sustain-l2",
			Discipline: model.DisciplineEnvironmental,
			Regulation: "Part L",
			Title:      "Energy efficiency of building services",
			Keywords:   []string{"energy efficiency", "carbon", "renewable"},
		},
		{
			ID:         "finishes-e1",
			Discipline: model.DisciplineFinishesInteriors,
			Regulation: "Part E",
			Title:      "Resistance to the passage of sound",
			Keywords:   []string{"sound insulation", "acoustic", "impact sound"},
		},
	}
}

// LoadRequirements reads requirement templates from a YAML file and merges
// them over the built-in set. A template sharing an ID with an existing one
// replaces it, new IDs are appended. Templates that fail validation are
// skipped with a warning.
func LoadRequirements(path string, logger *slog.Logger) ([]model.Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("read requirements file", err)
	}

	var file struct {
		Requirements []model.Requirement `yaml:"requirements"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, helper.NewError("parse requirements file", err)
	}

	merged := BuiltinRequirements()
	index := map[string]int{}
	for i, requirement := range merged {
		index[requirement.ID] = i
	}
	for _, requirement := range file.Requirements {
		if err := requirement.Validate(); err != nil {
			logger.Warn(
				"Skipping invalid requirement template",
				slog.String("id", requirement.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if i, ok := index[requirement.ID]; ok {
			merged[i] = requirement
			continue
		}
		if requirement.ID != "" {
			index[requirement.ID] = len(merged)
		}
		merged = append(merged, requirement)
	}
	return merged, nil
}
