package services

import (
	"context"
	"fmt"
	"sync"

	"nutriscan/internal/apperr"
	"nutriscan/internal/logger"
	"nutriscan/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService 站内通知，写入失败只记日志
type NotificationService struct {
	db *gorm.DB
	wg sync.WaitGroup
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyComment 异步通知：回复评论只通知被回复者，否则通知讨论作者；不通知自己
func (s *NotificationService) NotifyComment(c *models.Comment, discussionAuthor, parentAuthor uint) {
	n := models.Notification{
		ActorID:      c.UserID,
		DiscussionID: c.DiscussionID,
		CommentID:    c.ID,
	}
	if c.ParentID != nil {
		n.UserID = parentAuthor
		n.Type = models.NotificationTypeReplyComment
	} else {
		n.UserID = discussionAuthor
		n.Type = models.NotificationTypeCommentDiscussion
	}
	if n.UserID == 0 || n.UserID == c.UserID {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Create(&n).Error; err != nil {
			logger.L.Warn("create notification failed",
				zap.Uint("user_id", n.UserID),
				zap.Uint("comment_id", n.CommentID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	items := make([]models.Notification, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 标记单条通知为已读，只能操作自己的通知
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if isNotFound(err) {
		return apperr.NotFound("notification %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}
	if n.IsRead {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&n).UpdateColumn("is_read", true).Error; err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
