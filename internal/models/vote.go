package models

import (
	"time"
)

const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Vote 每个用户对每个目标最多一行。
// Both unique indexes tolerate NULLs, so a row only collides with rows of the same target kind.
type Vote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_vote_user_discussion;uniqueIndex:idx_vote_user_comment" json:"userId"`
	DiscussionID *uint     `gorm:"index;uniqueIndex:idx_vote_user_discussion" json:"discussionId"`
	CommentID    *uint     `gorm:"index;uniqueIndex:idx_vote_user_comment" json:"commentId"`
	VoteType     string    `gorm:"size:16;not null" json:"voteType"` // upvote or downvote
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
