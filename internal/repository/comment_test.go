package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"techsparks/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_CreateHydratesAuthor(t *testing.T) {
	f := newFixture(t)
	repo := NewCommentRepository(f.db)
	ctx := context.Background()

	c := &models.Comment{Content: "Nice post!", PostID: f.post.ID, AuthorID: f.other.ID}
	require.NoError(t, repo.Create(ctx, c))

	require.NotNil(t, c.Author)
	assert.Equal(t, "Linus", c.Author.Name)
	assert.False(t, c.IsEdited)
	assert.False(t, c.IsReply())
}

func TestCommentRepository_ListTopLevelWithReplies(t *testing.T) {
	f := newFixture(t)
	repo := NewCommentRepository(f.db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	older := f.comment(t, "older", nil, base)
	newer := f.comment(t, "newer", nil, base.Add(time.Minute))
	r2 := f.comment(t, "second reply", &older.ID, base.Add(3*time.Minute))
	r1 := f.comment(t, "first reply", &older.ID, base.Add(2*time.Minute))

	comments, total, err := repo.ListTopLevelWithReplies(ctx, f.post.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, comments, 2)

	assert.Equal(t, newer.ID, comments[0].ID)
	assert.Empty(t, comments[0].Replies)

	assert.Equal(t, older.ID, comments[1].ID)
	require.Len(t, comments[1].Replies, 2)
	assert.Equal(t, r1.ID, comments[1].Replies[0].ID)
	assert.Equal(t, r2.ID, comments[1].Replies[1].ID)
	require.NotNil(t, comments[1].Replies[0].Author)
	assert.Equal(t, "Ada", comments[1].Replies[0].Author.Name)

	page2, total, err := repo.ListTopLevelWithReplies(ctx, f.post.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page2, 1)
	assert.Equal(t, older.ID, page2[0].ID)
}

func TestCommentRepository_ListReplies(t *testing.T) {
	f := newFixture(t)
	repo := NewCommentRepository(f.db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	parent := f.comment(t, "parent", nil, base)
	for i := 0; i < 7; i++ {
		f.comment(t, "reply", &parent.ID, base.Add(time.Duration(i+1)*time.Minute))
	}

	replies, total, err := repo.ListReplies(ctx, parent.ID, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, replies, 5)
	for i := 1; i < len(replies); i++ {
		assert.True(t, !replies[i].CreatedAt.Before(replies[i-1].CreatedAt))
	}

	rest, _, err := repo.ListReplies(ctx, parent.ID, 5, 5)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

func TestCommentRepository_UpdateMarksEdited(t *testing.T) {
	f := newFixture(t)
	repo := NewCommentRepository(f.db)
	ctx := context.Background()

	c := f.comment(t, "draft", nil, time.Now())
	c.Content = "final"
	c.IsEdited = true
	require.NoError(t, repo.Update(ctx, c))

	fresh, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", fresh.Content)
	assert.True(t, fresh.IsEdited)
}

func TestCommentRepository_DeleteWithReplies(t *testing.T) {
	f := newFixture(t)
	repo := NewCommentRepository(f.db)
	ctx := context.Background()

	now := time.Now()
	top := f.comment(t, "top", nil, now)
	f.comment(t, "r1", &top.ID, now)
	f.comment(t, "r2", &top.ID, now)
	sibling := f.comment(t, "sibling", nil, now)

	n, err := repo.DeleteWithReplies(ctx, top.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = repo.GetByID(ctx, top.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, sibling.ID)
	assert.NoError(t, err)

	t.Run("deleting a reply leaves its parent", func(t *testing.T) {
		reply := f.comment(t, "r3", &sibling.ID, now)
		n, err := repo.DeleteWithReplies(ctx, reply.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.GetByID(ctx, sibling.ID)
		assert.NoError(t, err)
	})
}

func TestCommentRepository_DeleteWithReplies_SingleStatement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	id := "0d7a4b2c-8e1f-4a3b-9c5d-6e7f8a9b0c1d"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "comments" WHERE id = $1 OR parent_comment_id = $2`)).
		WithArgs(id, id).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := repo.DeleteWithReplies(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_UpdateTranslatesUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "comments" SET`).
		WillReturnError(&pgconn.PgError{
			Code:   "23505",
			Detail: "Key (content)=(dup) already exists.",
		})
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Comment{
		ID:       "0d7a4b2c-8e1f-4a3b-9c5d-6e7f8a9b0c1d",
		Content:  "dup",
		IsEdited: true,
	})
	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "content", dup.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}
