package models

import (
	"time"

	"gorm.io/datatypes"
)

// CVE is read-only reference data mirrored from the NVD. The correlation
// pipeline only consumes the description and publish date; the impact
// documents are kept verbatim for API consumers.
type CVE struct {
	CVE       string    `json:"cve" gorm:"primaryKey;not null;type:text;"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Description   string    `json:"description" gorm:"type:text;"`
	DatePublished time.Time `json:"datePublished"`

	// legacy (v2) and current (v3.1) scoring documents as returned by the NVD
	ImpactV2 datatypes.JSON `json:"impactV2" gorm:"type:jsonb;"`
	ImpactV3 datatypes.JSON `json:"impactV3" gorm:"type:jsonb;"`
}

func (m CVE) TableName() string {
	return "cves"
}

func (m CVE) GetSummary() string {
	if len(m.Description) > 100 {
		return m.Description[:100] + "..."
	}
	return m.Description
}
