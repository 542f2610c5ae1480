package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"
)

// ValidRiskLevel reports whether s is one of the known risk levels.
func ValidRiskLevel(s string) bool {
	switch s {
	case RiskLow, RiskMedium, RiskHigh, RiskUnknown:
		return true
	}
	return false
}

// Ingredient 成分，讨论挂在成分下面
type Ingredient struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	Name               string                      `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description        string                      `gorm:"type:text" json:"description"`
	Category           string                      `gorm:"size:64;index" json:"category"`
	RiskLevel          string                      `gorm:"size:16;not null;default:'unknown'" json:"riskLevel"`
	AllergenInfo       string                      `gorm:"type:text" json:"allergenInfo"`
	CommonUses         datatypes.JSONSlice[string] `json:"commonUses"`
	Aliases            datatypes.JSONSlice[string] `json:"aliases"`
	DiscussionCount    int                         `gorm:"not null;default:0;index" json:"discussionCount"` // 与 discussions 行数保持一致
	LastResearchUpdate *time.Time                  `json:"lastResearchUpdate"`
	CreatedAt          time.Time                   `json:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
}
