package services

import (
	"context"
	"fmt"
	"time"

	"nutriscan/internal/apperr"
	"nutriscan/internal/logger"
	"nutriscan/internal/metrics"
	"nutriscan/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteTarget string

const (
	VoteTargetDiscussion VoteTarget = models.TargetDiscussion
	VoteTargetComment    VoteTarget = models.TargetComment
)

func (t VoteTarget) column() (string, bool) {
	switch t {
	case VoteTargetDiscussion:
		return "discussion_id", true
	case VoteTargetComment:
		return "comment_id", true
	}
	return "", false
}

// VoteTally is the target's counters right after a vote was applied.
type VoteTally struct {
	TargetType VoteTarget `json:"targetType"`
	TargetID   uint       `json:"targetId"`
	Upvotes    int        `json:"upvotes"`
	Downvotes  int        `json:"downvotes"`
	Score      int        `json:"score"`
	UserVote   string     `json:"userVote"`
}

// VoteService 保证每个 (用户, 目标) 最多一票，并从 votes 表重算计数
type VoteService struct {
	db         *gorm.DB
	ranking    *RankingService
	maxRetries int
	backoff    time.Duration
}

func NewVoteService(db *gorm.DB, ranking *RankingService, maxRetries int) *VoteService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &VoteService{db: db, ranking: ranking, maxRetries: maxRetries, backoff: 20 * time.Millisecond}
}

// CastVote records or overwrites userID's vote on the target and returns the recounted tally.
// A repeated identical vote leaves the row untouched.
func (s *VoteService) CastVote(ctx context.Context, target VoteTarget, targetID, userID uint, voteType string) (*VoteTally, error) {
	if userID == 0 {
		return nil, apperr.Unauthorized("not authenticated")
	}
	if _, ok := target.column(); !ok {
		return nil, apperr.InvalidArgument("unknown vote target %q", target)
	}
	if voteType != models.VoteUp && voteType != models.VoteDown {
		return nil, apperr.InvalidArgument("voteType must be %q or %q", models.VoteUp, models.VoteDown)
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		tally, err := s.castOnce(ctx, target, targetID, userID, voteType)
		if err == nil {
			if target == VoteTargetDiscussion && s.ranking != nil {
				s.ranking.ScheduleUpdate(targetID)
			}
			return tally, nil
		}
		if !isRetryable(err) {
			return nil, err
		}

		lastErr = err
		metrics.VoteRetriesTotal.Inc()
		logger.L.Warn("vote write conflict, retrying",
			zap.String("target", string(target)),
			zap.Uint("target_id", targetID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}

	conflict := apperr.Conflict("vote could not be applied, please retry")
	conflict.Err = lastErr
	return nil, conflict
}

func (s *VoteService) castOnce(ctx context.Context, target VoteTarget, targetID, userID uint, voteType string) (*VoteTally, error) {
	column, _ := target.column()
	tally := &VoteTally{TargetType: target, TargetID: targetID, UserVote: voteType}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 锁住目标行，同一目标上的投票串行执行
		authorID, err := lockVoteTarget(tx, target, targetID)
		if err != nil {
			return err
		}

		// 2. upsert 投票
		var existing models.Vote
		previous := ""
		err = tx.Where("user_id = ? AND "+column+" = ?", userID, targetID).First(&existing).Error
		switch {
		case err == nil:
			previous = existing.VoteType
			if previous != voteType {
				if err := tx.Model(&existing).Update("vote_type", voteType).Error; err != nil {
					return err
				}
			}
		case isNotFound(err):
			id := targetID
			vote := models.Vote{UserID: userID, VoteType: voteType}
			if target == VoteTargetDiscussion {
				vote.DiscussionID = &id
			} else {
				vote.CommentID = &id
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		default:
			return err
		}

		// 3. 从 votes 表重新计数并写回目标
		up, down, err := countVotes(tx, column, targetID)
		if err != nil {
			return err
		}
		counters := map[string]any{"upvotes": up, "downvotes": down}
		var model any = &models.Discussion{}
		if target == VoteTargetComment {
			model = &models.Comment{}
		}
		if err := tx.Model(model).Where("id = ?", targetID).UpdateColumns(counters).Error; err != nil {
			return err
		}
		tally.Upvotes, tally.Downvotes = up, down

		if previous == voteType {
			return nil
		}

		// 4. 行为日志 + 作者声望，自己给自己投票不加声望
		beneficiary := authorID
		if authorID == userID {
			beneficiary = 0
		}
		delta := voteWeight(voteType) - voteWeight(previous)
		return recordActivity(tx, userID, models.ActionVoteCast, targetID, string(target), beneficiary, delta)
	})
	if err != nil {
		return nil, err
	}

	tally.Score = tally.Upvotes - tally.Downvotes
	return tally, nil
}

func lockVoteTarget(tx *gorm.DB, target VoteTarget, id uint) (uint, error) {
	locked := tx.Clauses(clause.Locking{Strength: "UPDATE"})

	var (
		authorID uint
		err      error
	)
	switch target {
	case VoteTargetDiscussion:
		var d models.Discussion
		err = locked.Select("id", "user_id").First(&d, id).Error
		authorID = d.UserID
	case VoteTargetComment:
		var c models.Comment
		err = locked.Select("id", "user_id", "is_deleted").First(&c, id).Error
		if err == nil && c.IsDeleted {
			err = gorm.ErrRecordNotFound
		}
		authorID = c.UserID
	}
	if isNotFound(err) {
		return 0, apperr.NotFound("%s %d not found", target, id)
	}
	if err != nil {
		return 0, fmt.Errorf("lock %s: %w", target, err)
	}
	return authorID, nil
}

func countVotes(tx *gorm.DB, column string, targetID uint) (up int, down int, err error) {
	var rows []struct {
		VoteType string
		N        int64
	}
	err = tx.Model(&models.Vote{}).
		Select("vote_type, COUNT(*) AS n").
		Where(column+" = ?", targetID).
		Group("vote_type").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	for _, r := range rows {
		switch r.VoteType {
		case models.VoteUp:
			up = int(r.N)
		case models.VoteDown:
			down = int(r.N)
		}
	}
	return up, down, nil
}

func voteWeight(voteType string) int {
	switch voteType {
	case models.VoteUp:
		return ReputationUpvoteReceived
	case models.VoteDown:
		return ReputationDownvoteReceived
	}
	return 0
}
