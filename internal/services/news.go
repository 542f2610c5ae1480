package services

import (
	"context"
	"fmt"

	"nutriscan/internal/logger"
	"nutriscan/internal/models"
	"nutriscan/internal/news"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewsFetcher is satisfied by news.Pipeline.
type NewsFetcher interface {
	FetchNews(ctx context.Context, name string, ingredientID uint, limit int) (news.Result, error)
	Invalidate(name string, ingredientID uint)
}

// NewsService 成分新闻：实时结果落库，管道本身出错时才读库里的旧数据
type NewsService struct {
	db          *gorm.DB
	ingredients *IngredientService
	pipeline    NewsFetcher
}

func NewNewsService(db *gorm.DB, ingredients *IngredientService, pipeline NewsFetcher) *NewsService {
	return &NewsService{db: db, ingredients: ingredients, pipeline: pipeline}
}

func (s *NewsService) ArticlesForIngredient(ctx context.Context, ingredientID uint, limit int) (news.Result, error) {
	ing, err := s.ingredients.Get(ctx, ingredientID)
	if err != nil {
		return news.Result{}, err
	}

	res, err := s.pipeline.FetchNews(ctx, ing.Name, ing.ID, limit)
	if err != nil {
		logger.L.Warn("news pipeline failed, serving stored articles", zap.Uint("ingredient_id", ing.ID), zap.Error(err))
		stored, serr := s.stored(context.WithoutCancel(ctx), ing.ID, limit)
		if serr != nil {
			return news.Result{}, serr
		}
		return news.Result{Articles: stored, Source: news.SourceStored}, nil
	}

	if res.Source == news.SourceLive {
		if err := s.persist(ctx, ing.ID, res.Articles); err != nil {
			logger.L.Warn("persist news failed", zap.Uint("ingredient_id", ing.ID), zap.Error(err))
			// 没落库就不留缓存，下次请求重新拉取再写
			s.pipeline.Invalidate(ing.Name, ing.ID)
		}
	}
	return res, nil
}

// persist replaces the ingredient's stored snapshot with the live result.
func (s *NewsService) persist(ctx context.Context, ingredientID uint, articles []news.Article) error {
	if len(articles) == 0 {
		return nil
	}
	rows := make([]models.NewsArticle, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, models.NewsArticle{
			IngredientID:  ingredientID,
			Title:         a.Title,
			Summary:       a.Summary,
			URL:           a.URL,
			Source:        a.Source,
			ImageURL:      a.ImageURL,
			PublishedDate: a.PublishedDate,
		})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ingredient_id = ?", ingredientID).Delete(&models.NewsArticle{}).Error; err != nil {
			return err
		}
		return tx.Create(&rows).Error
	})
}

func (s *NewsService) stored(ctx context.Context, ingredientID uint, limit int) ([]news.Article, error) {
	if limit <= 0 {
		limit = news.DefaultLimit
	}
	var rows []models.NewsArticle
	err := s.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Order("published_date DESC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list stored news: %w", err)
	}

	out := make([]news.Article, 0, len(rows))
	for _, r := range rows {
		out = append(out, news.Article{
			Title:         r.Title,
			Summary:       r.Summary,
			URL:           r.URL,
			Source:        r.Source,
			ImageURL:      r.ImageURL,
			PublishedDate: r.PublishedDate,
		})
	}
	return out, nil
}
