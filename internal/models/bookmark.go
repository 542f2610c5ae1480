package models

import (
	"time"
)

// Bookmark 收藏 - 成分或商品二选一
type Bookmark struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uint        `gorm:"not null;uniqueIndex:idx_bookmark_user_ingredient;uniqueIndex:idx_bookmark_user_product" json:"userId"`
	IngredientID *uint       `gorm:"index;uniqueIndex:idx_bookmark_user_ingredient" json:"ingredientId"`
	Ingredient   *Ingredient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"ingredient,omitempty"`
	ProductID    *uint       `gorm:"index;uniqueIndex:idx_bookmark_user_product" json:"productId"`
	Product      *Product    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}
