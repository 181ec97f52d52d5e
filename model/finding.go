package model

// EvidenceType classifies how a supporting passage was found.
type EvidenceType string

const (
	EvidenceRegulationReference EvidenceType = "regulation_reference"
	EvidenceKeywordMatch        EvidenceType = "keyword_match"
	EvidenceTechnicalSpec       EvidenceType = "technical_specification"
	EvidenceCalculation         EvidenceType = "calculation"
)

// Evidence is one supporting passage extracted for a finding.
type Evidence struct {
	Type            EvidenceType `json:"type"`
	Quote           string       `json:"quote"`
	HighlightedText string       `json:"highlighted_text"`
	PageNumber      int          `json:"page_number"`
	Confidence      float64      `json:"confidence"`
}

// RawFinding is the checker's uncalibrated verdict for one requirement.
type RawFinding struct {
	RequirementID       string     `json:"requirement_id"`
	Title               string     `json:"title"`
	Discipline          Discipline `json:"discipline"`
	Regulation          string     `json:"regulation"`
	RegulationMentioned bool       `json:"regulation_mentioned"`
	IsCompliant         bool       `json:"is_compliant"`
	BaseConfidence      float64    `json:"base_confidence"`
	KeywordsFound       []string   `json:"keywords_found,omitempty"`
	Evidence            []Evidence `json:"evidence,omitempty"`
}

// ConfidenceLevel is the coarse band of a calibrated confidence.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "high"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceVeryLow ConfidenceLevel = "very_low"
)

// TrafficLight is the per-finding review status.
type TrafficLight string

const (
	StatusGreen TrafficLight = "green"
	StatusAmber TrafficLight = "amber"
	StatusRed   TrafficLight = "red"
)

// Priority ranks how urgently a finding needs attention.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// CalibratedFinding is a RawFinding after confidence calibration and
// traffic-light scoring.
type CalibratedFinding struct {
	RawFinding
	CalibratedConfidence float64         `json:"calibrated_confidence"`
	ConfidenceLevel      ConfidenceLevel `json:"confidence_level"`
	Explanation          string          `json:"explanation,omitempty"`
	TrafficLight         TrafficLight    `json:"traffic_light"`
	Priority             Priority        `json:"priority"`
	RequiresReview       bool            `json:"requires_review"`
	StatusDescription    string          `json:"status_description,omitempty"`
}

// VerdictStatistics summarizes scored findings for a document.
type VerdictStatistics struct {
	GreenCount          int     `json:"green_count"`
	AmberCount          int     `json:"amber_count"`
	RedCount            int     `json:"red_count"`
	Total               int     `json:"total"`
	ComplianceRate      float64 `json:"compliance_rate"`
	AverageConfidence   float64 `json:"average_confidence"`
	RequiresReviewCount int     `json:"requires_review_count"`
}

// DocumentVerdict is the aggregated traffic-light outcome for a document.
type DocumentVerdict struct {
	OverallStatus TrafficLight        `json:"overall_status"`
	Findings      []CalibratedFinding `json:"findings"`
	Statistics    VerdictStatistics   `json:"statistics"`
}
