package models

import (
	"time"
)

type Discussion struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	IngredientID uint        `gorm:"not null;index" json:"ingredientId"`
	Ingredient   *Ingredient `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"ingredient,omitempty"`
	UserID       uint        `gorm:"not null;index" json:"userId"`
	User         *User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	Title        string      `gorm:"size:200;not null" json:"title"`
	Content      string      `gorm:"type:text;not null" json:"content"`
	Upvotes      int         `gorm:"not null;default:0" json:"upvotes"`   // 由 votes 表重新计数
	Downvotes    int         `gorm:"not null;default:0" json:"downvotes"` // 同上
	CommentCount int         `gorm:"not null;default:0" json:"commentCount"`
	HotScore     float64     `gorm:"not null;default:0;index" json:"hotScore"` // 排名 worker 异步更新
	IsPinned     bool        `gorm:"not null" json:"isPinned"`
	IsLocked     bool        `gorm:"not null" json:"isLocked"`
	CreatedAt    time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	// 非数据库字段，查询后渲染
	ContentHTML string `gorm:"-" json:"contentHtml"`
}
