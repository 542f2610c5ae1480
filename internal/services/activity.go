package services

import (
	"context"
	"fmt"

	"nutriscan/internal/models"

	"gorm.io/gorm"
)

// 声望变动值
const (
	ReputationPostCreated      = 2
	ReputationCommentCreated   = 1
	ReputationUpvoteReceived   = 1
	ReputationDownvoteReceived = -1
)

// recordActivity 在调用方事务里追加一条行为日志，并把 delta 加到 beneficiary 的声望上
// beneficiary 为 0 或 delta 为 0 时只记日志
func recordActivity(tx *gorm.DB, actorID uint, action string, targetID uint, targetType string, beneficiary uint, delta int) error {
	entry := models.UserActivity{
		UserID:     actorID,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
		Delta:      delta,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	if beneficiary == 0 || delta == 0 {
		return nil
	}
	return addReputation(tx, beneficiary, delta)
}

// addReputation 原子地增减声望
func addReputation(tx *gorm.DB, userID uint, delta int) error {
	if err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("reputation", gorm.Expr("reputation + ?", delta)).
		Error; err != nil {
		return fmt.Errorf("update reputation: %w", err)
	}
	return nil
}

// ActivityService exposes the activity log for reading.
type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// ListActivity 按时间倒序返回用户的行为日志
func (s *ActivityService) ListActivity(ctx context.Context, userID uint, limit int) ([]models.UserActivity, error) {
	items := make([]models.UserActivity, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return items, nil
}
