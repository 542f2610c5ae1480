package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeCommentDiscussion NotificationType = "comment_discussion" // 有人评论了你的讨论
	NotificationTypeReplyComment      NotificationType = "reply_comment"      // 有人回复了你的评论
)

// Notification is delivered best-effort; a failed insert is logged and dropped.
type Notification struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	UserID       uint             `gorm:"not null;index" json:"userId"` // Receiver
	ActorID      uint             `gorm:"not null" json:"actorId"`      // Sender
	Type         NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	DiscussionID uint             `gorm:"not null" json:"discussionId"`
	CommentID    uint             `gorm:"not null" json:"commentId"`
	IsRead       bool             `gorm:"not null;index" json:"isRead"`
	CreatedAt    time.Time        `json:"createdAt"`
}
