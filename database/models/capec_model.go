package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const CAPECStatusDeprecated = "Deprecated"

// CAPEC is an attack pattern mirrored from the MITRE catalog. The
// *_aggregated columns hold the flattened free-text of the respective XML
// subtrees; they are what the correlation pipeline scores against.
type CAPEC struct {
	CAPEC     string    `json:"capec" gorm:"primaryKey;not null;type:text;"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string `json:"name" gorm:"type:text;"`
	Abstraction string `json:"abstraction" gorm:"type:text;"`
	Status      string `json:"status" gorm:"type:text;"`

	DescriptionAggregated         string `json:"descriptionAggregated" gorm:"type:text;"`
	ExtendedDescriptionAggregated string `json:"extendedDescriptionAggregated" gorm:"type:text;"`
	PrerequisitesAggregated       string `json:"prerequisitesAggregated" gorm:"type:text;"`
	ResourcesRequiredAggregated   string `json:"resourcesRequiredAggregated" gorm:"type:text;"`
	MitigationsAggregated         string `json:"mitigationsAggregated" gorm:"type:text;"`
	SkillsRequiredAggregated      string `json:"skillsRequiredAggregated" gorm:"type:text;"`
	IndicatorsAggregated          string `json:"indicatorsAggregated" gorm:"type:text;"`

	AlternateTerms datatypes.JSONSlice[string] `json:"alternateTerms" gorm:"type:jsonb;"`

	ExecutionFlow *ExecutionFlow `json:"executionFlow" gorm:"foreignKey:CAPECID;constraint:OnDelete:CASCADE;"`
}

func (m CAPEC) TableName() string {
	return "capecs"
}

type ExecutionFlow struct {
	ID        uuid.UUID `json:"id" gorm:"primarykey;type:uuid;default:gen_random_uuid()"`
	CAPECID   string    `json:"capec" gorm:"type:text;not null;uniqueIndex;"`
	CreatedAt time.Time `json:"createdAt"`

	// catalog order; step labels like "1", "1b", "2" when the catalog
	// repeats a step number
	AttackSteps []AttackStep `json:"attackSteps" gorm:"foreignKey:ExecutionFlowID;constraint:OnDelete:CASCADE;"`
}

func (m ExecutionFlow) TableName() string {
	return "execution_flows"
}

// AttackStep is one step of a CAPEC execution flow. Step carries a lowercase
// letter suffix starting at "b" when the catalog repeats a step number
// ("1", "1b", "1c").
type AttackStep struct {
	ID              uuid.UUID `json:"id" gorm:"primarykey;type:uuid;default:gen_random_uuid()"`
	ExecutionFlowID uuid.UUID `json:"executionFlowId" gorm:"type:uuid;not null;index;"`

	Step  string `json:"step" gorm:"type:text;"`
	Phase string `json:"phase" gorm:"type:text;"`

	DescriptionAggregated string `json:"descriptionAggregated" gorm:"type:text;"`
	TechniquesAggregated  string `json:"techniquesAggregated" gorm:"type:text;"`

	// keeps the catalog order stable across queries
	OrderIndex int `json:"orderIndex" gorm:"not null;default:0;"`
}

func (m AttackStep) TableName() string {
	return "attack_steps"
}
