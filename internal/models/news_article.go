package models

import (
	"time"
)

// NewsArticle 最近一次成功抓取的新闻快照
type NewsArticle struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	IngredientID  uint      `gorm:"not null;index" json:"ingredientId"`
	Title         string    `gorm:"size:1024;not null" json:"title"`
	Summary       string    `gorm:"type:text" json:"summary"`
	URL           string    `gorm:"size:2048" json:"url"`
	Source        string    `gorm:"size:255" json:"source"`
	ImageURL      string    `gorm:"size:2048" json:"imageUrl"`
	PublishedDate string    `gorm:"size:10" json:"publishedDate"`
	CreatedAt     time.Time `json:"createdAt"`
}
