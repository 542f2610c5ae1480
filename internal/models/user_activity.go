package models

import (
	"time"
)

const (
	ActionPostCreated    = "post_created"
	ActionCommentCreated = "comment_created"
	ActionVoteCast       = "vote_cast"

	TargetDiscussion = "discussion"
	TargetComment    = "comment"
)

// UserActivity 只追加的行为日志
type UserActivity struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"userId"`
	Action     string    `gorm:"size:32;not null" json:"action"`
	TargetID   uint      `gorm:"not null" json:"targetId"`
	TargetType string    `gorm:"size:16;not null" json:"targetType"`
	Delta      int       `gorm:"not null;default:0" json:"delta"` // 对作者声望的变动
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}
