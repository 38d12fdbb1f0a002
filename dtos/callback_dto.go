package dtos

import (
	"time"

	"github.com/google/uuid"
)

// The callback payload is an external contract: field names are snake_case
// and must not change with internal refactorings.

type CallbackTopCapec struct {
	CAPECID    string  `json:"capec_id"`
	Rank       int     `json:"rank"`
	FinalScore float64 `json:"final_score"`
}

type CallbackCVEResult struct {
	CVEID     string             `json:"cve_id"`
	TopCapecs []CallbackTopCapec `json:"top_capecs"`
}

type CallbackPayload struct {
	TaskID      uuid.UUID           `json:"task_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	CVEResults  []CallbackCVEResult `json:"cve_results"`
}
