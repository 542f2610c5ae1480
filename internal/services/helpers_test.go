package services

import (
	"testing"

	"nutriscan/internal/models"
	"nutriscan/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	alice       *models.User
	bob         *models.User
	ingredient  *models.Ingredient
	discussions *DiscussionService
	votes       *VoteService
	notify      *NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	notify := NewNotificationService(gdb)
	t.Cleanup(notify.Wait)
	return &fixture{
		db:          gdb,
		alice:       testutil.CreateUser(t, gdb, "alice"),
		bob:         testutil.CreateUser(t, gdb, "bob"),
		ingredient:  testutil.CreateIngredient(t, gdb, "High Fructose Corn Syrup"),
		discussions: NewDiscussionService(gdb, nil, notify),
		votes:       NewVoteService(gdb, nil, 3),
		notify:      notify,
	}
}

func (f *fixture) reputation(t *testing.T, userID uint) int {
	t.Helper()
	var u models.User
	require.NoError(t, f.db.First(&u, userID).Error)
	return u.Reputation
}

func uintPtr(v uint) *uint { return &v }
