package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"nutriscan/internal/apperr"
	"nutriscan/internal/logger"
	"nutriscan/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxTitleLength   = 200
	maxContentLength = 10000
)

// ListOrder selects the discussion sort.
type ListOrder string

const (
	OrderNew ListOrder = "new"
	OrderTop ListOrder = "top"
	OrderHot ListOrder = "hot"
)

// ParseListOrder maps the sort query parameter; empty means newest first.
func ParseListOrder(s string) (ListOrder, error) {
	switch ListOrder(strings.ToLower(s)) {
	case "", OrderNew:
		return OrderNew, nil
	case OrderTop:
		return OrderTop, nil
	case OrderHot:
		return OrderHot, nil
	}
	return "", apperr.InvalidArgument("sort must be one of new, top, hot")
}

type CreateDiscussionInput struct {
	IngredientID uint
	UserID       uint
	Title        string
	Content      string
}

type CreateCommentInput struct {
	DiscussionID uint
	UserID       uint
	Content      string
	ParentID     *uint
}

// DiscussionService 讨论与评论树
type DiscussionService struct {
	db      *gorm.DB
	ranking *RankingService
	notify  *NotificationService
}

func NewDiscussionService(db *gorm.DB, ranking *RankingService, notify *NotificationService) *DiscussionService {
	return &DiscussionService{db: db, ranking: ranking, notify: notify}
}

func validateText(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.InvalidArgument("%s is required", field)
	}
	if utf8.RuneCountInString(value) > max {
		return "", apperr.InvalidArgument("%s must be at most %d characters", field, max)
	}
	return value, nil
}

// CreateDiscussion 创建讨论，同一事务里成分的 discussion_count +1
func (s *DiscussionService) CreateDiscussion(ctx context.Context, in CreateDiscussionInput) (*models.Discussion, error) {
	if in.UserID == 0 {
		return nil, apperr.Unauthorized("not authenticated")
	}
	title, err := validateText("title", in.Title, maxTitleLength)
	if err != nil {
		return nil, err
	}
	content, err := validateText("content", in.Content, maxContentLength)
	if err != nil {
		return nil, err
	}
	if in.IngredientID == 0 {
		return nil, apperr.InvalidArgument("ingredientId is required")
	}

	d := &models.Discussion{
		IngredientID: in.IngredientID,
		UserID:       in.UserID,
		Title:        title,
		Content:      content,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Ingredient{}).
			Where("id = ?", in.IngredientID).
			UpdateColumn("discussion_count", gorm.Expr("discussion_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("ingredient %d not found", in.IngredientID)
		}

		if err := tx.Create(d).Error; err != nil {
			return err
		}
		return recordActivity(tx, in.UserID, models.ActionPostCreated, d.ID, models.TargetDiscussion, in.UserID, ReputationPostCreated)
	})
	if err != nil {
		return nil, wrapInternal("create discussion", err)
	}
	return d, nil
}

func (s *DiscussionService) GetDiscussion(ctx context.Context, id uint) (*models.Discussion, error) {
	var d models.Discussion
	err := s.db.WithContext(ctx).Preload("User").First(&d, id).Error
	if isNotFound(err) {
		return nil, apperr.NotFound("discussion %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load discussion: %w", err)
	}
	return &d, nil
}

// ListDiscussions returns the ingredient's discussions, pinned ones first; an unknown ingredient yields an empty list.
func (s *DiscussionService) ListDiscussions(ctx context.Context, ingredientID uint, order ListOrder) ([]models.Discussion, error) {
	q := s.db.WithContext(ctx).Preload("User").Where("ingredient_id = ?", ingredientID).Order("is_pinned DESC")
	switch order {
	case OrderTop:
		q = q.Order("(upvotes - downvotes) DESC").Order("created_at DESC")
	case OrderHot:
		q = q.Order("hot_score DESC").Order("created_at DESC")
	default:
		q = q.Order("created_at DESC")
	}

	discussions := make([]models.Discussion, 0)
	if err := q.Order("id DESC").Find(&discussions).Error; err != nil {
		return nil, fmt.Errorf("list discussions: %w", err)
	}
	return discussions, nil
}

// CreateComment attaches a comment and bumps comment_count in one transaction.
func (s *DiscussionService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, apperr.Unauthorized("not authenticated")
	}
	content, err := validateText("content", in.Content, maxContentLength)
	if err != nil {
		return nil, err
	}
	if in.DiscussionID == 0 {
		return nil, apperr.InvalidArgument("discussionId is required")
	}

	c := &models.Comment{
		DiscussionID: in.DiscussionID,
		UserID:       in.UserID,
		ParentID:     in.ParentID,
		Content:      content,
	}
	var (
		discussionAuthor uint
		parentAuthor     uint
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Discussion
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "user_id", "is_locked").
			First(&d, in.DiscussionID).Error
		if isNotFound(err) {
			return apperr.NotFound("discussion %d not found", in.DiscussionID)
		}
		if err != nil {
			return err
		}
		if d.IsLocked {
			return apperr.Forbidden("discussion is locked")
		}
		discussionAuthor = d.UserID

		if in.ParentID != nil {
			var parent models.Comment
			err := tx.Select("id", "discussion_id", "user_id").First(&parent, *in.ParentID).Error
			if isNotFound(err) || (err == nil && parent.DiscussionID != in.DiscussionID) {
				return apperr.InvalidArgument("parentId %d does not reference a comment in discussion %d", *in.ParentID, in.DiscussionID)
			}
			if err != nil {
				return err
			}
			parentAuthor = parent.UserID
		}

		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Discussion{}).
			Where("id = ?", in.DiscussionID).
			UpdateColumns(map[string]any{
				"comment_count": gorm.Expr("comment_count + ?", 1),
				"updated_at":    time.Now(),
			}).Error; err != nil {
			return err
		}
		return recordActivity(tx, in.UserID, models.ActionCommentCreated, c.ID, models.TargetComment, in.UserID, ReputationCommentCreated)
	})
	if err != nil {
		return nil, wrapInternal("create comment", err)
	}

	if s.ranking != nil {
		s.ranking.ScheduleUpdate(in.DiscussionID)
	}
	if s.notify != nil {
		s.notify.NotifyComment(c, discussionAuthor, parentAuthor)
	}
	return c, nil
}

// ListComments returns the flat comment set oldest first; clients rebuild the tree from parentId.
func (s *DiscussionService) ListComments(ctx context.Context, discussionID uint) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("discussion_id = ?", discussionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// DeleteComment 软删除，只有作者本人可以删；子评论保持挂载
func (s *DiscussionService) DeleteComment(ctx context.Context, commentID, userID uint) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).First(&c, commentID).Error
	if isNotFound(err) {
		return nil, apperr.NotFound("comment %d not found", commentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	if c.UserID != userID {
		return nil, apperr.Forbidden("only the author can delete this comment")
	}
	if c.IsDeleted {
		return &c, nil
	}

	err = s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumns(map[string]any{"is_deleted": true, "updated_at": time.Now()}).Error
	if err != nil {
		return nil, fmt.Errorf("delete comment: %w", err)
	}

	c.IsDeleted = true
	c.Content = models.DeletedPlaceholder
	c.ContentHTML = ""
	logger.L.Info("comment soft-deleted", zap.Uint("comment_id", commentID), zap.Uint("user_id", userID))
	return &c, nil
}

// SetLocked 管理员锁定/解锁讨论
func (s *DiscussionService) SetLocked(ctx context.Context, id uint, locked bool) error {
	return s.setFlag(ctx, id, "is_locked", locked)
}

// SetPinned 管理员置顶/取消置顶
func (s *DiscussionService) SetPinned(ctx context.Context, id uint, pinned bool) error {
	return s.setFlag(ctx, id, "is_pinned", pinned)
}

func (s *DiscussionService) setFlag(ctx context.Context, id uint, column string, value bool) error {
	res := s.db.WithContext(ctx).Model(&models.Discussion{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{column: value, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("update discussion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("discussion %d not found", id)
	}
	return nil
}

// wrapInternal keeps domain errors intact and annotates everything else.
func wrapInternal(op string, err error) error {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
