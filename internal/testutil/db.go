// Package testutil provides a migrated sqlite database for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"nutriscan/internal/db"
	"nutriscan/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a fresh sqlite file under t.TempDir with the full schema.
// A single connection serialises every transaction like a locked row would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(db.SQLiteDSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// CreateUser inserts a user with the given name.
func CreateUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, IsAnonymous: true}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// CreateIngredient inserts an ingredient with the given name.
func CreateIngredient(t *testing.T, gdb *gorm.DB, name string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, RiskLevel: models.RiskUnknown}
	require.NoError(t, gdb.Create(ing).Error)
	return ing
}
