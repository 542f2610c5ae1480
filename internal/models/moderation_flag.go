package models

import (
	"time"
)

const (
	FlagPending   = "pending"
	FlagResolved  = "resolved"
	FlagDismissed = "dismissed"
)

// ModerationFlag 举报记录，discussionId 与 commentId 二选一
type ModerationFlag struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"userId"` // Reporter
	DiscussionID *uint      `gorm:"index" json:"discussionId"`
	CommentID    *uint      `gorm:"index" json:"commentId"`
	Reason       string     `gorm:"size:500;not null" json:"reason"`
	Status       string     `gorm:"size:16;not null;default:'pending';index" json:"status"`
	ReviewedAt   *time.Time `json:"reviewedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
