package repository

import (
	"context"

	"techsparks/internal/models"
	"techsparks/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations.
// Threads are two levels deep: top-level comments and their direct replies.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListTopLevelWithReplies(ctx context.Context, postID string, offset, limit int) ([]models.Comment, int64, error)
	ListReplies(ctx context.Context, parentID string, offset, limit int) ([]models.Comment, int64, error)
	Update(ctx context.Context, comment *models.Comment) error
	DeleteWithReplies(ctx context.Context, id string) (int64, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return translateError(err)
	}
	fresh, err := r.GetByID(ctx, comment.ID)
	if err != nil {
		return err
	}
	*comment = *fresh
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author", selectRef).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListTopLevelWithReplies(
	ctx context.Context,
	postID string,
	offset, limit int,
) ([]models.Comment, int64, error) {
	defer observability.TrackQuery("list_top_level", "comments")()
	if err := validateID(postID); err != nil {
		return nil, 0, err
	}

	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("post_id = ? AND parent_comment_id IS NULL", postID)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := []models.Comment{}
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Author", selectRef).
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Replies.Author", selectRef).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) ListReplies(
	ctx context.Context,
	parentID string,
	offset, limit int,
) ([]models.Comment, int64, error) {
	if err := validateID(parentID); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("parent_comment_id = ?", parentID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	replies := []models.Comment{}
	err := r.db.WithContext(ctx).
		Where("parent_comment_id = ?", parentID).
		Preload("Author", selectRef).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&replies).Error
	if err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", comment.ID).Updates(map[string]interface{}{
		"content":   comment.Content,
		"is_edited": comment.IsEdited,
	}).Error
	if err != nil {
		return translateError(err)
	}
	fresh, err := r.GetByID(ctx, comment.ID)
	if err != nil {
		return err
	}
	*comment = *fresh
	return nil
}

// DeleteWithReplies removes the comment and its direct replies in one statement
// and returns the number of rows removed. Deeper descendants are not touched.
func (r *commentRepository) DeleteWithReplies(ctx context.Context, id string) (int64, error) {
	if err := validateID(id); err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).
		Where("id = ? OR parent_comment_id = ?", id, id).
		Delete(&models.Comment{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return 0, res.Error
	}
	r.log.LogDelete(ctx, map[string]interface{}{"comment_id": id, "rows": res.RowsAffected})
	return res.RowsAffected, nil
}
