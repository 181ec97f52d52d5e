package classify

import (
	"sort"
	"strings"

	"github.com/veridoc/veridoc/model"
)

// documentTypeRule matches a document type from cues in the lowercased text
// or filename. A rule with qualifiers needs one qualifier present in
// addition to a text cue.
type documentTypeRule struct {
	documentType model.DocumentType
	textCues     []string
	qualifiers   []string
	filenameCues []string
}

// documentTypeRules is evaluated in order, first match wins. Documents
// matching no rule are filed as reports.
var documentTypeRules = []documentTypeRule{
	{
		documentType: model.DocumentTypeDrawing,
		textCues:     []string{"scale 1:", "drawing no", "rev.", "north point"},
		filenameCues: []string{"drg"},
	},
	{
		documentType: model.DocumentTypeFireStrategy,
		textCues:     []string{"fire safety strategy", "fire engineering"},
	},
	{
		documentType: model.DocumentTypeCalculation,
		textCues:     []string{"calculation", "load case", "ultimate limit state"},
	},
	{
		documentType: model.DocumentTypeSpecification,
		textCues:     []string{"specification", "clause"},
	},
	{
		documentType: model.DocumentTypeCertificate,
		textCues:     []string{"certificate", "certified that"},
	},
	{
		documentType: model.DocumentTypeSchedule,
		textCues:     []string{"schedule"},
		qualifiers:   []string{"door", "window", "finish"},
	},
}

// disciplineRule ties a discipline to its keyword set. Keywords are matched
// as lowercase substrings and every discipline is evaluated independently,
// so one document can hit several.
type disciplineRule struct {
	discipline model.Discipline
	keywords   []string
}

var disciplineRules = []disciplineRule{
	{model.DisciplineStructuralEngineering, []string{"structural", "foundation", "beam", "column", "slab", "eurocode", "steel frame", "concrete"}},
	{model.DisciplineFireSafety, []string{"fire", "smoke", "sprinkler", "fire alarm", "fire rating", "means of escape", "compartmentation"}},
	{model.DisciplineBuildingEnvelope, []string{"thermal", "insulation", "u-value", "glazing", "window", "external wall", "roof", "weatherproofing"}},
	{model.DisciplineMechanicalServices, []string{"hvac", "ventilation", "heating", "cooling", "plumbing", "drainage", "water supply", "air handling"}},
	{model.DisciplineElectricalServices, []string{"electrical", "power", "lighting", "distribution board", "cable", "circuit", "bs 7671", "wiring"}},
	{model.DisciplineAccessibility, []string{"accessibility", "disabled access", "part m", "wheelchair", "accessible", "inclusive design"}},
	{model.DisciplineEnvironmental, []string{"energy efficiency", "breeam", "leed", "sustainability", "carbon", "renewable", "solar", "environmental"}},
	{model.DisciplineHealthSafety, []string{"health and safety", "cdm", "construction phase plan", "risk assessment", "method statement"}},
	{model.DisciplineQualityAssurance, []string{"testing", "commissioning", "inspection", "certificate", "test report", "compliance certificate"}},
	{model.DisciplineLegalContracts, []string{"contract", "jct", "nec", "warranty", "guarantee", "agreement", "tender"}},
	{model.DisciplineSpecialistSystems, []string{"lift", "elevator", "escalator", "bms", "building management", "access control", "cctv"}},
	{model.DisciplineExternalWorks, []string{"drainage", "landscaping", "paving", "roads", "highways", "suds", "attenuation"}},
	{model.DisciplineFinishesInteriors, []string{"finishes", "flooring", "ceiling", "partition", "acoustic", "interior", "joinery"}},
}

// disciplineRegulations maps each discipline to the regulation parts it is
// reviewed against. Disciplines without an entry carry no default part.
var disciplineRegulations = map[model.Discipline][]string{
	model.DisciplineStructuralEngineering: {"Part A - Structure"},
	model.DisciplineFireSafety:            {"Part B - Fire Safety"},
	model.DisciplineBuildingEnvelope:      {"Part C - Site Preparation", "Part L - Conservation of Fuel and Power"},
	model.DisciplineMechanicalServices:    {"Part F - Ventilation", "Part G - Sanitation", "Part H - Drainage", "Part J - Combustion"},
	model.DisciplineElectricalServices:    {"Part P - Electrical Safety"},
	model.DisciplineAccessibility:         {"Part M - Access"},
	model.DisciplineEnvironmental:         {"Part L - Conservation of Fuel and Power"},
	model.DisciplineHealthSafety:          {"CDM Regulations 2015"},
	model.DisciplineFinishesInteriors:     {"Part E - Resistance to Sound", "Part B - Fire Safety (Linings)"},
}

// regulationMentions detects regulation parts referenced directly in the
// text, independent of discipline detection.
var regulationMentions = map[string]string{
	"part a": "Part A - Structure",
	"part b": "Part B - Fire Safety",
	"part c": "Part C - Site Preparation",
	"part e": "Part E - Resistance to Sound",
	"part f": "Part F - Ventilation",
	"part g": "Part G - Sanitation",
	"part h": "Part H - Drainage",
	"part j": "Part J - Combustion",
	"part l": "Part L - Conservation of Fuel and Power",
	"part m": "Part M - Access",
	"part p": "Part P - Electrical Safety",
}

// priorityAgents names the discipline that reviews a document type first.
// The priority agent is prepended even when its keywords did not match.
var priorityAgents = map[model.DocumentType]model.Discipline{
	model.DocumentTypeFireStrategy: model.DisciplineFireSafety,
	model.DocumentTypeCalculation:  model.DisciplineStructuralEngineering,
}

// Classify routes a building document from its text and filename. Document
// type is decided by ordered first-match rules, disciplines by independent
// keyword sets, and regulations by the static discipline mapping unioned
// with parts mentioned directly in the text.
func Classify(text string, filename string) model.Classification {
	textLower := strings.ToLower(text)
	filenameLower := strings.ToLower(filename)

	documentType := classifyDocumentType(textLower, filenameLower)
	disciplines := detectDisciplines(textLower)

	return model.Classification{
		DocumentType: documentType,
		Disciplines:  disciplines,
		Regulations:  mapRegulations(disciplines, textLower),
		Agents:       routeAgents(disciplines, documentType),
		Confidence:   classificationConfidence(text, disciplines),
	}
}

func classifyDocumentType(textLower string, filenameLower string) model.DocumentType {
	for _, rule := range documentTypeRules {
		if rule.matches(textLower, filenameLower) {
			return rule.documentType
		}
	}
	return model.DocumentTypeReport
}

func (r documentTypeRule) matches(textLower string, filenameLower string) bool {
	if containsAny(filenameLower, r.filenameCues) {
		return true
	}
	if !containsAny(textLower, r.textCues) {
		return false
	}
	return len(r.qualifiers) == 0 || containsAny(textLower, r.qualifiers)
}

func detectDisciplines(textLower string) []model.Discipline {
	var disciplines []model.Discipline
	for _, rule := range disciplineRules {
		if containsAny(textLower, rule.keywords) {
			disciplines = append(disciplines, rule.discipline)
		}
	}
	if len(disciplines) == 0 {
		disciplines = append(disciplines, model.RequiresManualClassification)
	}
	return disciplines
}

func mapRegulations(disciplines []model.Discipline, textLower string) []string {
	seen := map[string]struct{}{}
	for _, discipline := range disciplines {
		for _, regulation := range disciplineRegulations[discipline] {
			seen[regulation] = struct{}{}
		}
	}
	for mention, regulation := range regulationMentions {
		if strings.Contains(textLower, mention) {
			seen[regulation] = struct{}{}
		}
	}

	regulations := make([]string, 0, len(seen))
	for regulation := range seen {
		regulations = append(regulations, regulation)
	}
	sort.Strings(regulations)
	return regulations
}

func routeAgents(disciplines []model.Discipline, documentType model.DocumentType) []model.Discipline {
	priority, ok := priorityAgents[documentType]
	if !ok {
		return append([]model.Discipline{}, disciplines...)
	}

	agents := []model.Discipline{priority}
	for _, discipline := range disciplines {
		if discipline != priority {
			agents = append(agents, discipline)
		}
	}
	return agents
}

func classificationConfidence(text string, disciplines []model.Discipline) float64 {
	if len(text) < 100 {
		return 0.3
	}
	for _, discipline := range disciplines {
		if discipline == model.RequiresManualClassification {
			return 0.4
		}
	}
	if len(disciplines) >= 2 {
		return 0.85
	}
	if len(disciplines) == 1 {
		return 0.75
	}
	return 0.6
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}
