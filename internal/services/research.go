package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nutriscan/internal/logger"
	"nutriscan/internal/metrics"
	"nutriscan/internal/models"
	"nutriscan/internal/research"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const researchFetchLimit = 10

// StudySearcher is satisfied by research.Client.
type StudySearcher interface {
	Search(ctx context.Context, query string, limit int) ([]research.Study, error)
}

// ResearchService 研究文献：过期才去外部刷新，刷新失败继续返回库里的数据
type ResearchService struct {
	db          *gorm.DB
	ingredients *IngredientService
	searcher    StudySearcher
	ttl         time.Duration
	timeout     time.Duration
	cooldown    *gocache.Cache
	cooldownFor time.Duration
	group       singleflight.Group
	now         func() time.Time
}

func NewResearchService(db *gorm.DB, ingredients *IngredientService, searcher StudySearcher, ttl, timeout, cooldown time.Duration) *ResearchService {
	return &ResearchService{
		db:          db,
		ingredients: ingredients,
		searcher:    searcher,
		ttl:         ttl,
		timeout:     timeout,
		cooldown:    gocache.New(cooldown, 2*cooldown),
		cooldownFor: cooldown,
		now:         time.Now,
	}
}

// StudiesForIngredient returns stored studies, refreshing them first when stale.
func (s *ResearchService) StudiesForIngredient(ctx context.Context, ingredientID uint) ([]models.ResearchStudy, error) {
	ing, err := s.ingredients.Get(ctx, ingredientID)
	if err != nil {
		return nil, err
	}

	if s.stale(ing) {
		key := strconv.FormatUint(uint64(ing.ID), 10)
		if _, onCooldown := s.cooldown.Get(key); !onCooldown {
			// 同一成分的并发刷新只跑一次
			_, _, _ = s.group.Do(key, func() (any, error) {
				s.refresh(context.WithoutCancel(ctx), ing)
				return nil, nil
			})
		}
	}

	studies := make([]models.ResearchStudy, 0)
	err = s.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Order("citation_count DESC").
		Order("id ASC").
		Find(&studies).Error
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	return studies, nil
}

func (s *ResearchService) stale(ing *models.Ingredient) bool {
	if s.searcher == nil {
		return false
	}
	return ing.LastResearchUpdate == nil || s.now().Sub(*ing.LastResearchUpdate) > s.ttl
}

func (s *ResearchService) refresh(ctx context.Context, ing *models.Ingredient) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	found, err := s.searcher.Search(ctx, research.Query(ing.Name), researchFetchLimit)
	if err != nil {
		s.cooldown.Set(strconv.FormatUint(uint64(ing.ID), 10), true, s.cooldownFor)
		metrics.UpstreamErrorsTotal.WithLabelValues(research.SourceEuropePMC, "error").Inc()
		logger.L.Warn("research refresh failed, serving stored studies",
			zap.Uint("ingredient_id", ing.ID), zap.Error(err))
		return
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(found) > 0 {
			if err := tx.Where("ingredient_id = ?", ing.ID).Delete(&models.ResearchStudy{}).Error; err != nil {
				return err
			}
			rows := make([]models.ResearchStudy, 0, len(found))
			for _, st := range found {
				rows = append(rows, models.ResearchStudy{
					IngredientID:  ing.ID,
					Title:         st.Title,
					Authors:       st.Authors,
					Abstract:      st.Abstract,
					URL:           st.URL,
					PublishedDate: st.PublishedDate,
					Source:        st.Source,
					CitationCount: st.CitationCount,
				})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Ingredient{}).
			Where("id = ?", ing.ID).
			UpdateColumn("last_research_update", now).Error
	})
	if err != nil {
		logger.L.Warn("store research studies failed", zap.Uint("ingredient_id", ing.ID), zap.Error(err))
		return
	}
	logger.L.Info("research refreshed", zap.Uint("ingredient_id", ing.ID), zap.Int("count", len(found)))
}
