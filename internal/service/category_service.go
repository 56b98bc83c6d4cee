package service

import (
	"context"
	"errors"
	"strings"

	"techsparks/internal/models"
	"techsparks/internal/notifications"
	"techsparks/internal/repository"
)

type CategoryService struct {
	repo repository.CategoryRepository
	pub  notifications.Publisher
}

type CategoryInput struct {
	Name        string
	Description string
	ActorID     string
}

func NewCategoryService(repo repository.CategoryRepository, pub notifications.Publisher) *CategoryService {
	return &CategoryService{repo: repo, pub: pub}
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Category name is required!")
	}

	_, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return nil, models.NewConflictError("Category already exists!")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	category := &models.Category{Name: name, Description: strings.TrimSpace(in.Description)}
	if err := s.repo.Create(ctx, category); err != nil {
		var dup *repository.DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, models.NewConflictError("Category already exists!")
		}
		return nil, err
	}

	s.changed(ctx, category.ID, in.ActorID)
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category not found!")
	}
	return category, nil
}

// Update replaces name and description. A name clash surfaces as a
// duplicate key error.
func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, models.NewValidationError("Category name required and must be string!")
	}

	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category not found")
	}
	category.Name = name
	category.Description = strings.TrimSpace(in.Description)
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}

	s.changed(ctx, category.ID, in.ActorID)
	return category, nil
}

// Delete removes the category. Posts filed under it are left in place.
func (s *CategoryService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, "Category not found")
	}
	s.changed(ctx, id, actorID)
	return nil
}

func (s *CategoryService) changed(ctx context.Context, id, actorID string) {
	publish(ctx, s.pub, notifications.Event{
		Type:    notifications.CategoryChanged,
		ActorID: actorID,
		Payload: map[string]string{"categoryId": id},
	})
}
