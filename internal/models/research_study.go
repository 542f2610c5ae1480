package models

import (
	"time"
)

type ResearchStudy struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	IngredientID  uint      `gorm:"not null;index" json:"ingredientId"`
	Title         string    `gorm:"size:1024;not null" json:"title"`
	Authors       string    `gorm:"type:text" json:"authors"`
	Abstract      string    `gorm:"type:text" json:"abstract"`
	URL           string    `gorm:"size:1024" json:"url"`
	PublishedDate string    `gorm:"size:10" json:"publishedDate"` // YYYY-MM-DD
	Source        string    `gorm:"size:32" json:"source"`
	CitationCount int       `gorm:"not null;default:0" json:"citationCount"`
	AISummary     string    `gorm:"type:text" json:"aiSummary"`
	CreatedAt     time.Time `json:"createdAt"`
}
