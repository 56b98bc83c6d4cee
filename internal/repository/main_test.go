package repository

import (
	"context"
	"testing"
	"time"

	"techsparks/internal/database"
	"techsparks/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory SQLite database with the full schema.
// A single connection keeps every query on the same memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

type fixture struct {
	db       *gorm.DB
	author   *models.User
	other    *models.User
	category *models.Category
	post     *models.Post
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)
	f := &fixture{
		db:       db,
		author:   &models.User{Name: "Ada", Email: "ada@example.com", Password: "x"},
		other:    &models.User{Name: "Linus", Email: "linus@example.com", Password: "x"},
		category: &models.Category{Name: "Go"},
	}
	require.NoError(t, db.Create(f.author).Error)
	require.NoError(t, db.Create(f.other).Error)
	require.NoError(t, db.Create(f.category).Error)

	f.post = &models.Post{Title: "Hello", Content: "World", AuthorID: f.author.ID, CategoryID: f.category.ID}
	require.NoError(t, db.Create(f.post).Error)
	return f
}

func (f *fixture) comment(t *testing.T, content string, parent *string, at time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		Content:         content,
		PostID:          f.post.ID,
		AuthorID:        f.author.ID,
		ParentCommentID: parent,
		CreatedAt:       at,
	}
	require.NoError(t, f.db.WithContext(context.Background()).Create(c).Error)
	return c
}
