package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyDBErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		duplicate bool
		retryable bool
	}{
		{"nil", nil, false, false},
		{"gorm duplicated key", fmt.Errorf("create vote: %w", gorm.ErrDuplicatedKey), true, true},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: votes.user_id, votes.discussion_id (2067)"), true, true},
		{"postgres unique", errors.New(`ERROR: duplicate key value violates unique constraint "idx_vote_user_discussion" (SQLSTATE 23505)`), true, true},
		{"mysql unique", errors.New("Error 1062 (23000): Duplicate entry '1-2' for key 'idx_vote_user_discussion'"), true, true},
		{"postgres serialization", errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)"), false, true},
		{"mysql deadlock", errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction"), false, true},
		{"mysql lock wait", errors.New("Error 1205 (HY000): Lock wait timeout exceeded; try restarting transaction"), false, true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), false, true},
		{"not found", gorm.ErrRecordNotFound, false, false},
		{"syntax", errors.New(`ERROR: syntax error at or near "FROM" (SQLSTATE 42601)`), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.duplicate, isDuplicateKey(tt.err))
			assert.Equal(t, tt.retryable, isRetryable(tt.err))
		})
	}

	assert.True(t, isNotFound(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)))
}
