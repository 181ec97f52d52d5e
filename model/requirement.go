package model

import "errors"

// ValueConstraint bounds a numeric metric extracted from document text.
// At least one extracted value for the metric must satisfy every set bound.
type ValueConstraint struct {
	Metric string   `json:"metric" yaml:"metric"`
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Exact  *float64 `json:"exact,omitempty" yaml:"exact,omitempty"`
}

// Requirement is one checkable regulation requirement template.
type Requirement struct {
	ID                  string            `json:"id" yaml:"id"`
	Discipline          Discipline        `json:"discipline" yaml:"discipline"`
	Regulation          string            `json:"regulation" yaml:"regulation"`
	Title               string            `json:"title" yaml:"title"`
	Description         string            `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords            []string          `json:"keywords" yaml:"keywords"`
	Constraints         []ValueConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	RequiresCalculation bool              `json:"requires_calculation,omitempty" yaml:"requires_calculation,omitempty"`
}

// Validate reports whether the template carries everything the checker needs.
func (r *Requirement) Validate() error {
	if r.Discipline == "" {
		return errors.New("requirement is missing a discipline")
	}
	if r.Regulation == "" {
		return errors.New("requirement is missing a regulation")
	}
	if len(r.Keywords) == 0 {
		return errors.New("requirement has no keywords")
	}
	return nil
}
