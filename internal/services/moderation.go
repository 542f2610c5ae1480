package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"nutriscan/internal/apperr"
	"nutriscan/internal/models"

	"gorm.io/gorm"
)

const maxReasonLength = 500

type FlagInput struct {
	UserID       uint
	DiscussionID *uint
	CommentID    *uint
	Reason       string
}

// ModerationService 举报与审核
type ModerationService struct {
	db *gorm.DB
}

func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{db: db}
}

// FlagContent 举报一条讨论或评论，二选一
func (s *ModerationService) FlagContent(ctx context.Context, in FlagInput) (*models.ModerationFlag, error) {
	if in.UserID == 0 {
		return nil, apperr.Unauthorized("not authenticated")
	}
	if (in.DiscussionID == nil) == (in.CommentID == nil) {
		return nil, apperr.InvalidArgument("exactly one of discussionId or commentId is required")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, apperr.InvalidArgument("reason is required")
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, apperr.InvalidArgument("reason must be at most %d characters", maxReasonLength)
	}

	db := s.db.WithContext(ctx)
	var count int64
	if in.DiscussionID != nil {
		if err := db.Model(&models.Discussion{}).Where("id = ?", *in.DiscussionID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check discussion: %w", err)
		}
		if count == 0 {
			return nil, apperr.NotFound("discussion %d not found", *in.DiscussionID)
		}
	} else {
		if err := db.Model(&models.Comment{}).Where("id = ?", *in.CommentID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check comment: %w", err)
		}
		if count == 0 {
			return nil, apperr.NotFound("comment %d not found", *in.CommentID)
		}
	}

	flag := &models.ModerationFlag{
		UserID:       in.UserID,
		DiscussionID: in.DiscussionID,
		CommentID:    in.CommentID,
		Reason:       reason,
		Status:       models.FlagPending,
	}
	if err := db.Create(flag).Error; err != nil {
		return nil, fmt.Errorf("create flag: %w", err)
	}
	return flag, nil
}

// ListFlags returns flags newest first; an empty status lists everything.
func (s *ModerationService) ListFlags(ctx context.Context, status string, limit int) ([]models.ModerationFlag, error) {
	q := s.db.WithContext(ctx).Model(&models.ModerationFlag{})
	if status != "" {
		if !validFlagStatus(status) {
			return nil, apperr.InvalidArgument("unknown status %q", status)
		}
		q = q.Where("status = ?", status)
	}

	flags := make([]models.ModerationFlag, 0)
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&flags).Error; err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	return flags, nil
}

// ReviewFlag 只允许 pending -> resolved|dismissed
func (s *ModerationService) ReviewFlag(ctx context.Context, id uint, status string) (*models.ModerationFlag, error) {
	if status != models.FlagResolved && status != models.FlagDismissed {
		return nil, apperr.InvalidArgument("status must be %q or %q", models.FlagResolved, models.FlagDismissed)
	}

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.ModerationFlag{}).
		Where("id = ? AND status = ?", id, models.FlagPending).
		UpdateColumns(map[string]any{"status": status, "reviewed_at": now, "updated_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("review flag: %w", res.Error)
	}

	var flag models.ModerationFlag
	err := s.db.WithContext(ctx).First(&flag, id).Error
	if isNotFound(err) {
		return nil, apperr.NotFound("flag %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load flag: %w", err)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("flag %d is already %s", id, flag.Status)
	}
	return &flag, nil
}

func validFlagStatus(s string) bool {
	switch s {
	case models.FlagPending, models.FlagResolved, models.FlagDismissed:
		return true
	}
	return false
}
