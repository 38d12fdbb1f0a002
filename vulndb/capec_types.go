package vulndb

import (
	"encoding/xml"
	"strings"

	"github.com/threatlinker/threatlinker/database/models"
	"github.com/threatlinker/threatlinker/utils"
	"gorm.io/datatypes"
)

type capecCatalog struct {
	XMLName        xml.Name             `xml:"Attack_Pattern_Catalog"`
	Name           string               `xml:"Name,attr"`
	Version        string               `xml:"Version,attr"`
	Date           string               `xml:"Date,attr"`
	AttackPatterns []capecAttackPattern `xml:"Attack_Patterns>Attack_Pattern"`
}

type capecAttackPattern struct {
	ID          string `xml:"ID,attr"`
	Name        string `xml:"Name,attr"`
	Abstraction string `xml:"Abstraction,attr"`
	Status      string `xml:"Status,attr"`

	Description         flattenedText   `xml:"Description"`
	ExtendedDescription flattenedText   `xml:"Extended_Description"`
	Prerequisites       []flattenedText `xml:"Prerequisites>Prerequisite"`
	SkillsRequired      []flattenedText `xml:"Skills_Required>Skill"`
	ResourcesRequired   []flattenedText `xml:"Resources_Required>Resource"`
	Indicators          []flattenedText `xml:"Indicators>Indicator"`
	Mitigations         []flattenedText `xml:"Mitigations>Mitigation"`
	AlternateTerms      []flattenedText `xml:"Alternate_Terms>Alternate_Term>Term"`

	ExecutionFlow *capecExecutionFlow `xml:"Execution_Flow"`
}

type capecExecutionFlow struct {
	AttackSteps []capecAttackStep `xml:"Attack_Step"`
}

type capecAttackStep struct {
	Step        string          `xml:"Step"`
	Phase       string          `xml:"Phase"`
	Description flattenedText   `xml:"Description"`
	Techniques  []flattenedText `xml:"Technique"`
}

// flattenedText collects the character data of an element and all of its
// descendants, mirroring how the catalog embeds xhtml markup inside
// descriptions. Whitespace gets collapsed.
type flattenedText string

func (t *flattenedText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(v)
			sb.WriteByte(' ')
		default:
			_ = v
		}
	}
	*t = flattenedText(strings.Join(strings.Fields(sb.String()), " "))
	return nil
}

func joinTexts(texts []flattenedText) string {
	parts := make([]string, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			continue
		}
		parts = append(parts, string(text))
	}
	return strings.Join(parts, " ")
}

func (pattern capecAttackPattern) toModel() models.CAPEC {
	capecID := "CAPEC-" + pattern.ID

	capec := models.CAPEC{
		CAPEC:       capecID,
		Name:        pattern.Name,
		Abstraction: pattern.Abstraction,
		Status:      pattern.Status,

		DescriptionAggregated:         string(pattern.Description),
		ExtendedDescriptionAggregated: string(pattern.ExtendedDescription),
		PrerequisitesAggregated:       joinTexts(pattern.Prerequisites),
		ResourcesRequiredAggregated:   joinTexts(pattern.ResourcesRequired),
		MitigationsAggregated:         joinTexts(pattern.Mitigations),
		SkillsRequiredAggregated:      joinTexts(pattern.SkillsRequired),
		IndicatorsAggregated:          joinTexts(pattern.Indicators),

		AlternateTerms: datatypes.NewJSONSlice(utils.Filter(utils.Map(pattern.AlternateTerms, func(t flattenedText) string {
			return string(t)
		}), func(term string) bool {
			return term != ""
		})),
	}

	if pattern.ExecutionFlow != nil && len(pattern.ExecutionFlow.AttackSteps) > 0 {
		flow := models.ExecutionFlow{
			CAPECID: capecID,
		}
		// the catalog repeats step numbers, duplicates get a letter suffix
		// starting at "b": "1", "1b", "1c", ...
		stepCounts := make(map[string]int)
		for i, step := range pattern.ExecutionFlow.AttackSteps {
			label := strings.TrimSpace(step.Step)
			stepCounts[label]++
			if stepCounts[label] > 1 {
				label = label + string(rune('a'+stepCounts[label]-1))
			}
			flow.AttackSteps = append(flow.AttackSteps, models.AttackStep{
				Step:                  label,
				Phase:                 strings.TrimSpace(step.Phase),
				DescriptionAggregated: string(step.Description),
				TechniquesAggregated:  joinTexts(step.Techniques),
				OrderIndex:            i,
			})
		}
		capec.ExecutionFlow = &flow
	}
	return capec
}
