package services

import (
	"context"
	"fmt"

	"nutriscan/internal/apperr"
	"nutriscan/internal/models"

	"gorm.io/gorm"
)

// BookmarkService 收藏成分或商品
type BookmarkService struct {
	db *gorm.DB
}

func NewBookmarkService(db *gorm.DB) *BookmarkService {
	return &BookmarkService{db: db}
}

// ListBookmarks 按收藏时间倒序，带出成分/商品
func (s *BookmarkService) ListBookmarks(ctx context.Context, userID uint) ([]models.Bookmark, error) {
	items := make([]models.Bookmark, 0)
	err := s.db.WithContext(ctx).
		Preload("Ingredient").
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return items, nil
}

// AddBookmark is idempotent: bookmarking the same target again returns the existing row.
func (s *BookmarkService) AddBookmark(ctx context.Context, userID uint, ingredientID, productID *uint) (*models.Bookmark, error) {
	if userID == 0 {
		return nil, apperr.Unauthorized("not authenticated")
	}
	if (ingredientID == nil) == (productID == nil) {
		return nil, apperr.InvalidArgument("exactly one of ingredientId or productId is required")
	}

	db := s.db.WithContext(ctx)
	column, id, model, label := "ingredient_id", ingredientID, any(&models.Ingredient{}), "ingredient"
	if productID != nil {
		column, id, model, label = "product_id", productID, &models.Product{}, "product"
	}

	var count int64
	if err := db.Model(model).Where("id = ?", *id).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check %s: %w", label, err)
	}
	if count == 0 {
		return nil, apperr.NotFound("%s %d not found", label, *id)
	}

	existing, err := s.find(ctx, userID, column, *id)
	if err != nil || existing != nil {
		return existing, err
	}

	b := &models.Bookmark{UserID: userID, IngredientID: ingredientID, ProductID: productID}
	if err := db.Create(b).Error; err != nil {
		if isDuplicateKey(err) {
			// 并发添加，另一个请求先写入
			if existing, ferr := s.find(ctx, userID, column, *id); ferr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("create bookmark: %w", err)
	}
	return b, nil
}

func (s *BookmarkService) find(ctx context.Context, userID uint, column string, id uint) (*models.Bookmark, error) {
	var b models.Bookmark
	err := s.db.WithContext(ctx).Where("user_id = ? AND "+column+" = ?", userID, id).First(&b).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bookmark: %w", err)
	}
	return &b, nil
}

// RemoveBookmark 只能删除自己的收藏
func (s *BookmarkService) RemoveBookmark(ctx context.Context, userID, bookmarkID uint) error {
	var b models.Bookmark
	err := s.db.WithContext(ctx).First(&b, bookmarkID).Error
	if isNotFound(err) {
		return apperr.NotFound("bookmark %d not found", bookmarkID)
	}
	if err != nil {
		return fmt.Errorf("load bookmark: %w", err)
	}
	if b.UserID != userID {
		return apperr.Forbidden("bookmark belongs to another user")
	}
	if err := s.db.WithContext(ctx).Delete(&b).Error; err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}
