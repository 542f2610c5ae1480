package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"nutriscan/internal/apperr"
	"nutriscan/internal/models"
	"nutriscan/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (f *fixture) newDiscussion(t *testing.T, author *models.User) *models.Discussion {
	t.Helper()
	d, err := f.discussions.CreateDiscussion(context.Background(), CreateDiscussionInput{
		IngredientID: f.ingredient.ID,
		UserID:       author.ID,
		Title:        "Is HFCS worse than sugar?",
		Content:      "Curious what the **evidence** says.",
	})
	require.NoError(t, err)
	return d
}

func TestCastVoteFlipAndSecondVoter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.newDiscussion(t, f.alice)
	carol := testutil.CreateUser(t, f.db, "carol")

	tally, err := f.votes.CastVote(ctx, VoteTargetDiscussion, d.ID, f.bob.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Upvotes)
	assert.Equal(t, 0, tally.Downvotes)

	// 改票
	tally, err = f.votes.CastVote(ctx, VoteTargetDiscussion, d.ID, f.bob.ID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Upvotes)
	assert.Equal(t, 1, tally.Downvotes)

	tally, err = f.votes.CastVote(ctx, VoteTargetDiscussion, d.ID, carol.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Upvotes)
	assert.Equal(t, 1, tally.Downvotes)
	assert.Equal(t, 0, tally.Score)
	assert.Equal(t, models.VoteUp, tally.UserVote)

	var stored models.Discussion
	require.NoError(t, f.db.First(&stored, d.ID).Error)
	assert.Equal(t, 1, stored.Upvotes)
	assert.Equal(t, 1, stored.Downvotes)

	var votes int64
	require.NoError(t, f.db.Model(&models.Vote{}).Where("discussion_id = ?", d.ID).Count(&votes).Error)
	assert.Equal(t, int64(2), votes)

	// +2 创建, +1 -2 (bob 改票), +1 carol
	assert.Equal(t, 2, f.reputation(t, f.alice.ID))
	assert.Equal(t, 0, f.reputation(t, f.bob.ID))
}

func TestCastVoteRepeatIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.newDiscussion(t, f.alice)

	for i := 0; i < 3; i++ {
		tally, err := f.votes.CastVote(ctx, VoteTargetDiscussion, d.ID, f.bob.ID, models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, 1, tally.Upvotes)
	}

	var activity int64
	require.NoError(t, f.db.Model(&models.UserActivity{}).
		Where("user_id = ? AND action = ?", f.bob.ID, models.ActionVoteCast).
		Count(&activity).Error)
	assert.Equal(t, int64(1), activity)
	assert.Equal(t, 3, f.reputation(t, f.alice.ID))
}

func TestCastVoteSelfVoteKeepsReputation(t *testing.T) {
	f := newFixture(t)
	d := f.newDiscussion(t, f.alice)

	_, err := f.votes.CastVote(context.Background(), VoteTargetDiscussion, d.ID, f.alice.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, ReputationPostCreated, f.reputation(t, f.alice.ID))
}

func TestCastVoteOnComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.newDiscussion(t, f.alice)
	c, err := f.discussions.CreateComment(ctx, CreateCommentInput{DiscussionID: d.ID, UserID: f.bob.ID, Content: "Same thing, really."})
	require.NoError(t, err)

	tally, err := f.votes.CastVote(ctx, VoteTargetComment, c.ID, f.alice.ID, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Downvotes)

	// 讨论上的票和评论上的票互不影响
	tally, err = f.votes.CastVote(ctx, VoteTargetDiscussion, d.ID, f.alice.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Upvotes)
	assert.Equal(t, 0, tally.Downvotes)

	_, err = f.discussions.DeleteComment(ctx, c.ID, f.bob.ID)
	require.NoError(t, err)
	_, err = f.votes.CastVote(ctx, VoteTargetComment, c.ID, f.alice.ID, models.VoteUp)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCastVoteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.newDiscussion(t, f.alice)

	tests := []struct {
		name     string
		target   VoteTarget
		targetID uint
		userID   uint
		voteType string
		kind     apperr.Kind
	}{
		{"anonymous caller", VoteTargetDiscussion, d.ID, 0, models.VoteUp, apperr.KindUnauthorized},
		{"bad vote type", VoteTargetDiscussion, d.ID, f.bob.ID, "meh", apperr.KindInvalidArgument},
		{"bad target", VoteTarget("ingredient"), d.ID, f.bob.ID, models.VoteUp, apperr.KindInvalidArgument},
		{"missing discussion", VoteTargetDiscussion, 9999, f.bob.ID, models.VoteUp, apperr.KindNotFound},
		{"missing comment", VoteTargetComment, 9999, f.bob.ID, models.VoteUp, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.votes.CastVote(ctx, tt.target, tt.targetID, tt.userID, tt.voteType)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	var votes int64
	require.NoError(t, f.db.Model(&models.Vote{}).Count(&votes).Error)
	assert.Zero(t, votes)
}

func TestCastVoteConcurrentVotersCountExactly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.newDiscussion(t, f.alice)

	const voters = 20
	users := make([]*models.User, voters)
	for i := range users {
		users[i] = testutil.CreateUser(t, f.db, "voter"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			voteType := models.VoteUp
			if i%4 == 0 {
				voteType = models.VoteDown
			}
			_, err := f.votes.CastVote(ctx, VoteTargetDiscussion, d.ID, u.ID, voteType)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var stored models.Discussion
	require.NoError(t, f.db.First(&stored, d.ID).Error)
	assert.Equal(t, 15, stored.Upvotes)
	assert.Equal(t, 5, stored.Downvotes)
}

func TestCastVoteSameUserConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.newDiscussion(t, f.alice)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.votes.CastVote(ctx, VoteTargetDiscussion, d.ID, f.bob.ID, models.VoteUp)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var votes int64
	require.NoError(t, f.db.Model(&models.Vote{}).Where("discussion_id = ? AND user_id = ?", d.ID, f.bob.ID).Count(&votes).Error)
	assert.Equal(t, int64(1), votes)

	var stored models.Discussion
	require.NoError(t, f.db.First(&stored, d.ID).Error)
	assert.Equal(t, 1, stored.Upvotes)
}

func TestCastVoteGivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.newDiscussion(t, f.alice)

	// 每次插入投票都返回 SQLITE_BUSY
	var attempts atomic.Int32
	err := f.db.Callback().Create().Before("gorm:create").Register("test:busy_votes", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "votes" {
			attempts.Add(1)
			_ = tx.AddError(errors.New("database is locked (5) (SQLITE_BUSY)"))
		}
	})
	require.NoError(t, err)

	_, err = f.votes.CastVote(ctx, VoteTargetDiscussion, d.ID, f.bob.ID, models.VoteUp)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, int32(3), attempts.Load())

	// 每次尝试都回滚
	var votes int64
	require.NoError(t, f.db.Model(&models.Vote{}).Count(&votes).Error)
	assert.Zero(t, votes)
	var stored models.Discussion
	require.NoError(t, f.db.First(&stored, d.ID).Error)
	assert.Zero(t, stored.Upvotes)
	assert.Equal(t, ReputationPostCreated, f.reputation(t, f.alice.ID))
}

func TestCastVoteDoesNotRetryPermanentErrors(t *testing.T) {
	f := newFixture(t)
	d := f.newDiscussion(t, f.alice)

	var attempts atomic.Int32
	err := f.db.Callback().Create().Before("gorm:create").Register("test:broken_votes", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "votes" {
			attempts.Add(1)
			_ = tx.AddError(errors.New("disk I/O error"))
		}
	})
	require.NoError(t, err)

	_, err = f.votes.CastVote(context.Background(), VoteTargetDiscussion, d.ID, f.bob.ID, models.VoteUp)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, int32(1), attempts.Load())
}
