// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"path/filepath"
	"testing"

	"playhub/internal/database"
	"playhub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a file-backed SQLite database in t.TempDir with the full schema applied.
// A single connection is used, so concurrent callers interleave statement by statement.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "playhub_test.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := database.Open(sqlite.Open(dsn), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateGame inserts a published game with the given title.
func CreateGame(t *testing.T, db *gorm.DB, title string) *models.Game {
	t.Helper()
	game := &models.Game{Title: title, Description: title + " description", Rating: 4.5, PublishStatus: true}
	require.NoError(t, db.Omit("Categories").Create(game).Error)
	return game
}

// CreateCategory inserts a category with the given name.
func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}
