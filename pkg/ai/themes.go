package ai

// Theme biases extraction toward the entity and relationship types that are
// salient for a class of documents. The caller picks a theme per upload; an
// unknown theme falls back to ThemeGeneric.
type Theme struct {
	Name          string
	Entities      []string
	Relationships []string
}

const (
	ThemeCV       = "Personal CV / Resume"
	ThemeTech     = "Technology, Tools & Docs"
	ThemeMedical  = "Medical/Scientific"
	ThemeBusiness = "Business/Legal"
	ThemeGeneric  = "Generic"
)

var themes = map[string]Theme{
	ThemeCV: {
		Name:          ThemeCV,
		Entities:      []string{"PERSON", "COMPANY", "UNIVERSITY", "ROLE", "PROJECT", "SKILL", "TOOL", "LANGUAGE", "CERTIFICATION", "LOCATION"},
		Relationships: []string{"WORKED_AT", "STUDIED_AT", "HELD_ROLE", "WORKED_ON", "HAS_SKILL", "USES_TOOL", "MASTER_OF_LANGUAGE"},
	},
	ThemeTech: {
		Name:          ThemeTech,
		Entities:      []string{"PERSON", "ORGANIZATION", "ROLE", "PROJECT", "SKILL", "TOOL", "FRAMEWORK", "DATABASE", "CERTIFICATION", "LOCATION", "EDUCATION"},
		Relationships: []string{"WORKED_AT", "HELD_ROLE", "WORKED_ON", "HAS_SKILL", "USES_TOOL", "STUDIED_AT", "EARNED_CERTIFICATION"},
	},
	ThemeMedical: {
		Name:          ThemeMedical,
		Entities:      []string{"DISEASE", "SYMPTOM", "DRUG", "TREATMENT", "ANATOMY", "GENE", "RESEARCH_STUDY", "PERSON", "ORGANIZATION"},
		Relationships: []string{"CAUSES", "TREATS", "IS_SYMPTOM_OF", "PREVENTS", "INTERACTS_WITH", "STUDIED_BY"},
	},
	ThemeBusiness: {
		Name:          ThemeBusiness,
		Entities:      []string{"COMPANY", "PERSON", "CONTRACT", "LAW", "FINANCIAL_METRIC", "PRODUCT", "LOCATION"},
		Relationships: []string{"OWNS", "PARTNERS_WITH", "REGULATES", "SUED_BY", "SELLS", "EMPLOYS"},
	},
	ThemeGeneric: {
		Name:          ThemeGeneric,
		Entities:      []string{"PERSON", "ORGANIZATION", "CONCEPT", "EVENT", "LOCATION", "THING"},
		Relationships: []string{"RELATED_TO", "PART_OF", "CAUSED", "PARTICIPATED_IN"},
	},
}

// ThemeSchema resolves a theme hint to its extraction schema. Unknown hints
// resolve to the generic schema so free-text hints never fail an upload.
func ThemeSchema(hint string) Theme {
	if t, ok := themes[hint]; ok {
		return t
	}
	return themes[ThemeGeneric]
}

// ThemeNames lists the known theme hints in a stable order.
func ThemeNames() []string {
	return []string{ThemeCV, ThemeTech, ThemeMedical, ThemeBusiness, ThemeGeneric}
}
