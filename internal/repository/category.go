package repository

import (
	"context"

	"techsparks/internal/cache"
	"techsparks/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category operations
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := translateError(r.db.WithContext(ctx).Create(category).Error)
	if err == nil {
		cache.Invalidate(ctx, cache.CategoryListKey)
	}
	return err
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var category models.Category
	err := cache.Aside(ctx, "category", cache.CategoryKey(id), &category, cache.CategoryTTL, func() error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := cache.Aside(ctx, "category_list", cache.CategoryListKey, &categories, cache.CategoryTTL, func() error {
		return r.db.WithContext(ctx).Order("created_at ASC").Find(&categories).Error
	})
	return categories, err
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	err := translateError(r.db.WithContext(ctx).Save(category).Error)
	if err == nil {
		cache.InvalidateCategory(ctx, category.ID)
	}
	return err
}

// Delete removes the category only; posts keep their dangling reference.
func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	cache.InvalidateCategory(ctx, id)
	return nil
}
