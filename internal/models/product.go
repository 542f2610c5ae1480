package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProductIngredient is one entry of a product's ordered ingredient list.
type ProductIngredient struct {
	Name       string   `json:"name"`
	Percentage *float64 `json:"percentage,omitempty"`
	Category   string   `json:"category,omitempty"`
	Allergens  []string `json:"allergens,omitempty"`
}

type Product struct {
	ID            uint                                   `gorm:"primaryKey" json:"id"`
	Barcode       string                                 `gorm:"size:32;uniqueIndex;not null" json:"barcode"`
	Name          string                                 `gorm:"size:255;not null" json:"name"`
	Brand         string                                 `gorm:"size:255" json:"brand"`
	ImageURL      string                                 `gorm:"size:1024" json:"imageUrl"`
	NutriScore    string                                 `gorm:"size:8;not null;default:'none'" json:"nutriScore"` // a..e 或 none
	Ingredients   datatypes.JSONSlice[ProductIngredient] `json:"ingredients"`
	NutritionData datatypes.JSON                         `json:"nutritionData"`
	LastUpdated   time.Time                              `gorm:"autoUpdateTime" json:"lastUpdated"`
	CreatedAt     time.Time                              `json:"createdAt"`
}
