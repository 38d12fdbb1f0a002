package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaskType string

const (
	TaskTypeCorrelation TaskType = "correlation"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusComplete   TaskStatus = "complete"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task is one correlation job: a set of CVE ids scored against the whole
// CAPEC catalog with a single AI model. The status is owned by the
// completion tracker once the task has been dispatched. Tasks are never
// deleted by the correlation pipeline itself.
type Task struct {
	Model
	Name   string     `json:"name" gorm:"type:text;not null;"`
	Type   TaskType   `json:"type" gorm:"type:text;not null;default:'correlation';"`
	Status TaskStatus `json:"status" gorm:"type:text;not null;default:'pending';"`

	// ordered list of CVE ids. Duplicates are stored as-is - the contract
	// does not deduplicate.
	CVEHosts datatypes.JSONSlice[string] `json:"cveHosts" gorm:"type:jsonb;"`

	// a single model identifier, e.g. "SBERT Hyb"
	AIModel string `json:"aiModel" gorm:"type:text;not null;"`

	Notes       string  `json:"notes" gorm:"type:text;"`
	CallbackURL *string `json:"callbackUrl" gorm:"type:text;"`

	SingleCorrelations []SingleCorrelation `json:"singleCorrelations" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE;"`
}

func (m Task) TableName() string {
	return "tasks"
}

type CorrelationStatus string

const (
	CorrelationStatusPending    CorrelationStatus = "pending"
	CorrelationStatusInProgress CorrelationStatus = "in_progress"
	CorrelationStatusComplete   CorrelationStatus = "complete"
	CorrelationStatusFailed     CorrelationStatus = "failed"
)

// SingleCorrelation holds the ranked CAPEC result sets for one CVE of one
// task, keyed by model name ("SBERT", "SBERT_keyword", ...). It is written
// exactly once by the subgroup worker; only the status may change afterwards.
// The (task_id, cve_id) uniqueness constraint backs up the disjoint
// partitioning invariant of the orchestrator.
type SingleCorrelation struct {
	Model
	TaskID uuid.UUID `json:"taskId" gorm:"uniqueIndex:idx_task_cve;type:uuid;not null;"`
	Task   Task      `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE;"`

	CVEID  string            `json:"cveId" gorm:"uniqueIndex:idx_task_cve;type:text;not null;"`
	Status CorrelationStatus `json:"status" gorm:"type:text;not null;default:'pending';"`

	SimilarityScores datatypes.JSON `json:"similarityScores" gorm:"type:jsonb;"`
}

func (m SingleCorrelation) TableName() string {
	return "single_correlations"
}
