package models

import (
	"time"
)

type Comment struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	DiscussionID uint        `gorm:"not null;index" json:"discussionId"`
	Discussion   *Discussion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID       uint        `gorm:"not null;index" json:"userId"`
	User         *User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	ParentID     *uint       `gorm:"index" json:"parentId"` // Nullable for top-level comments
	Content      string      `gorm:"type:text;not null" json:"content"`
	Upvotes      int         `gorm:"not null;default:0" json:"upvotes"`
	Downvotes    int         `gorm:"not null;default:0" json:"downvotes"`
	IsDeleted    bool        `gorm:"not null;index" json:"isDeleted"` // 软删除，子评论保留 parentId
	CreatedAt    time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	ContentHTML string `gorm:"-" json:"contentHtml"`
}
