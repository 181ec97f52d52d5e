package model

// DocumentType is the coarse category a building document is filed under.
type DocumentType string

const (
	DocumentTypeDrawing       DocumentType = "drawing"
	DocumentTypeFireStrategy  DocumentType = "fire_strategy"
	DocumentTypeCalculation   DocumentType = "calculation"
	DocumentTypeSpecification DocumentType = "specification"
	DocumentTypeCertificate   DocumentType = "certificate"
	DocumentTypeSchedule      DocumentType = "schedule"
	DocumentTypeReport        DocumentType = "report"
)

// Discipline identifies one of the specialist review domains.
type Discipline string

const (
	DisciplineStructuralEngineering Discipline = "structural_engineering"
	DisciplineBuildingEnvelope      Discipline = "building_envelope"
	DisciplineMechanicalServices    Discipline = "mechanical_services"
	DisciplineElectricalServices    Discipline = "electrical_services"
	DisciplineFireSafety            Discipline = "fire_safety"
	DisciplineAccessibility         Discipline = "accessibility"
	DisciplineEnvironmental         Discipline = "environmental_sustainability"
	DisciplineHealthSafety          Discipline = "health_safety"
	DisciplineQualityAssurance      Discipline = "quality_assurance"
	DisciplineLegalContracts        Discipline = "legal_contracts"
	DisciplineSpecialistSystems     Discipline = "specialist_systems"
	DisciplineExternalWorks         Discipline = "external_works"
	DisciplineFinishesInteriors     Discipline = "finishes_interiors"
)

// RequiresManualClassification is the sentinel discipline returned when no
// discipline keywords match a document.
const RequiresManualClassification Discipline = "requires_manual_classification"

// GeneralCollection holds units for cross-discipline retrieval.
const GeneralCollection = "agent_general"

// Disciplines lists all specialist domains in a stable order.
var Disciplines = []Discipline{
	DisciplineStructuralEngineering,
	DisciplineBuildingEnvelope,
	DisciplineMechanicalServices,
	DisciplineElectricalServices,
	DisciplineFireSafety,
	DisciplineAccessibility,
	DisciplineEnvironmental,
	DisciplineHealthSafety,
	DisciplineQualityAssurance,
	DisciplineLegalContracts,
	DisciplineSpecialistSystems,
	DisciplineExternalWorks,
	DisciplineFinishesInteriors,
}

// Collection returns the vector collection name for the discipline.
func (d Discipline) Collection() string {
	return "agent_" + string(d)
}

// AllCollections returns every discipline collection plus the general one.
func AllCollections() []string {
	collections := make([]string, 0, len(Disciplines)+1)
	for _, d := range Disciplines {
		collections = append(collections, d.Collection())
	}
	return append(collections, GeneralCollection)
}

// Classification is the result of rule-based document classification.
type Classification struct {
	DocumentType DocumentType `json:"document_type"`
	Disciplines  []Discipline `json:"disciplines"`
	Regulations  []string     `json:"regulations"`
	Agents       []Discipline `json:"agents"`
	Confidence   float64      `json:"confidence"`
}
