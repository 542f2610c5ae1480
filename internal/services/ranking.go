package services

import (
	"context"
	"sync"
	"time"

	"nutriscan/internal/logger"
	"nutriscan/internal/models"
	"nutriscan/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	rankingQueueSize = 1000
	rankingBatchSize = 50
	rankingHotWindow = 7 * 24 * time.Hour
)

// RankingService 异步计算并更新讨论的 hot_score
type RankingService struct {
	db      *gorm.DB
	queue   chan uint // 待更新的讨论 ID 队列
	pending map[uint]bool
	mu      sync.Mutex
	refresh time.Duration
	now     func() time.Time
}

func NewRankingService(db *gorm.DB, refresh time.Duration) *RankingService {
	return &RankingService{
		db:      db,
		queue:   make(chan uint, rankingQueueSize), // 缓冲队列，防止阻塞
		pending: make(map[uint]bool),
		refresh: refresh,
		now:     time.Now,
	}
}

// ScheduleUpdate 将讨论加入更新队列（异步，去重，不阻塞调用方）
func (s *RankingService) ScheduleUpdate(discussionID uint) {
	s.mu.Lock()
	if s.pending[discussionID] {
		// 已在队列中，跳过
		s.mu.Unlock()
		return
	}
	s.pending[discussionID] = true
	s.mu.Unlock()

	select {
	case s.queue <- discussionID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, discussionID)
		s.mu.Unlock()
		logger.L.Warn("ranking queue full, dropping update", zap.Uint("discussion_id", discussionID))
	}
}

// Run drains the queue in batches and refreshes recent discussions periodically until ctx is done.
func (s *RankingService) Run(ctx context.Context) {
	batch := make([]uint, 0, rankingBatchSize)
	ticker := time.NewTicker(500 * time.Millisecond) // 每 500ms 处理一批
	defer ticker.Stop()
	refresh := time.NewTicker(s.refresh)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			batch = append(batch, id)
			if len(batch) >= rankingBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-refresh.C:
			s.RefreshRecent(ctx)
		}
	}
}

func (s *RankingService) processBatch(ctx context.Context, ids []uint) {
	for _, id := range ids {
		// 先清 pending，计算期间的新投票会重新入队
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()

		if err := s.UpdateScore(ctx, id); err != nil {
			logger.L.Warn("update hot score failed", zap.Uint("discussion_id", id), zap.Error(err))
		}
	}
}

// UpdateScore recomputes one discussion's hot score synchronously.
func (s *RankingService) UpdateScore(ctx context.Context, discussionID uint) error {
	var d models.Discussion
	err := s.db.WithContext(ctx).
		Select("id", "upvotes", "downvotes", "comment_count", "created_at").
		First(&d, discussionID).Error
	if err != nil {
		return err
	}

	score := utils.HotScore(d.CreatedAt, s.now(), d.Upvotes, d.Downvotes, d.CommentCount)
	return s.db.WithContext(ctx).
		Model(&models.Discussion{}).
		Where("id = ?", discussionID).
		UpdateColumn("hot_score", score).Error
}

// RefreshRecent 重新计算最近 7 天的讨论，让没有新互动的讨论也随时间衰减
func (s *RankingService) RefreshRecent(ctx context.Context) int {
	var ids []uint
	since := s.now().Add(-rankingHotWindow)
	if err := s.db.WithContext(ctx).Model(&models.Discussion{}).
		Where("created_at >= ?", since).
		Pluck("id", &ids).Error; err != nil {
		logger.L.Warn("list recent discussions failed", zap.Error(err))
		return 0
	}

	count := 0
	for _, id := range ids {
		if err := s.UpdateScore(ctx, id); err == nil {
			count++
		}
	}
	logger.L.Info("hot scores refreshed", zap.Int("count", count))
	return count
}
