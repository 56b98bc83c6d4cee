package repository

import (
	"context"
	"strings"

	"techsparks/internal/models"
	"techsparks/internal/observability"

	"gorm.io/gorm"
)

// Sort fields accepted by PostQuery.SortBy, mapped to their columns.
var postSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
}

// PostQuery describes a filtered, sorted page of posts.
type PostQuery struct {
	Offset     int
	Limit      int
	Search     string
	CategoryID string
	SortBy     string
	SortOrder  string
}

// SortColumn returns the whitelisted column for SortBy, defaulting to created_at.
func (q PostQuery) SortColumn() string {
	if col, ok := postSortColumns[q.SortBy]; ok {
		return col
	}
	return "created_at"
}

// Descending reports whether results run newest/highest first.
func (q PostQuery) Descending() bool {
	return !strings.EqualFold(q.SortOrder, "asc")
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, q PostQuery) ([]models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func selectRef(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

func (r *postRepository) hydrated(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author", selectRef).
		Preload("Category", selectRef)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return translateError(err)
	}
	return r.hydrate(ctx, post)
}

// hydrate reloads the author and category projections of post.
func (r *postRepository) hydrate(ctx context.Context, post *models.Post) error {
	fresh, err := r.GetByID(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *fresh
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var post models.Post
	if err := r.hydrated(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postRepository) filtered(ctx context.Context, q PostQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&models.Post{})
	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if q.CategoryID != "" {
		db = db.Where("category_id = ?", q.CategoryID)
	}
	return db
}

func (r *postRepository) List(ctx context.Context, q PostQuery) ([]models.Post, int64, error) {
	defer observability.TrackQuery("list", "posts")()
	if q.CategoryID != "" {
		if err := validateID(q.CategoryID); err != nil {
			return nil, 0, err
		}
	}

	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := q.SortColumn() + " ASC, id ASC"
	if q.Descending() {
		order = q.SortColumn() + " DESC, id DESC"
	}

	posts := []models.Post{}
	err := r.filtered(ctx, q).
		Preload("Author", selectRef).
		Preload("Category", selectRef).
		Order(order).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"title":       post.Title,
		"content":     post.Content,
		"category_id": post.CategoryID,
		"image":       post.Image,
	}).Error
	if err != nil {
		return translateError(err)
	}
	return r.hydrate(ctx, post)
}

// Delete removes the post and its comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
