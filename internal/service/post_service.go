package service

import (
	"context"
	"strings"

	"techsparks/internal/models"
	"techsparks/internal/notifications"
	"techsparks/internal/repository"
	"techsparks/internal/validation"
)

type PostService struct {
	postRepo repository.PostRepository
	images   *ImageService
	pub      notifications.Publisher
}

type ListPostsInput struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	SortBy    string
	SortOrder string
}

// PostFields are the author-editable fields, validated on create and update.
type PostFields struct {
	Title      string `validate:"required" label:"Title"`
	Content    string `validate:"required" label:"Content"`
	CategoryID string `validate:"required,uuid" label:"Category"`
}

// ImageUpload is a file received with a post form.
type ImageUpload struct {
	Filename string
	Content  []byte
}

type CreatePostInput struct {
	PostFields
	AuthorID string
	Image    *ImageUpload
}

type UpdatePostInput struct {
	PostFields
	Image *ImageUpload
}

func NewPostService(postRepo repository.PostRepository, images *ImageService, pub notifications.Publisher) *PostService {
	return &PostService{postRepo: postRepo, images: images, pub: pub}
}

// List returns one page of posts. An empty page is not an error.
func (s *PostService) List(ctx context.Context, in ListPostsInput) ([]models.Post, models.Pagination, error) {
	page, limit := normalizePage(in.Page, in.Limit, DefaultPostLimit)
	p := models.NewPagination(page, limit, 0, "totalPosts")

	posts, total, err := s.postRepo.List(ctx, repository.PostQuery{
		Offset:     p.Offset(),
		Limit:      limit,
		Search:     strings.TrimSpace(in.Search),
		CategoryID: strings.TrimSpace(in.Category),
		SortBy:     in.SortBy,
		SortOrder:  in.SortOrder,
	})
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return posts, models.NewPagination(page, limit, total, "totalPosts"), nil
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Post not found")
	}
	return post, nil
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validateFields(&in.PostFields); err != nil {
		return nil, err
	}
	if in.Image == nil || len(in.Image.Content) == 0 {
		return nil, models.NewValidationError("Image is required!")
	}

	stored, err := s.images.Save(ctx, in.Image.Filename, in.Image.Content)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		CategoryID: in.CategoryID,
		AuthorID:   in.AuthorID,
		Image:      stored.Original,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.images.Remove(stored.Original)
		return nil, err
	}

	publish(ctx, s.pub, notifications.Event{
		Type:    notifications.PostCreated,
		PostID:  post.ID,
		ActorID: in.AuthorID,
		Payload: post,
	})
	return post, nil
}

// Update replaces the fields of a post owned by requesterID. The image is
// only replaced when a new one is uploaded.
func (s *PostService) Update(ctx context.Context, id string, in UpdatePostInput, requesterID string) (*models.Post, error) {
	if err := validateFields(&in.PostFields); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Post not found!")
	}
	if post.AuthorID != requesterID {
		return nil, models.NewUnauthorizedError("You can only edit your own posts!")
	}

	previousImage := post.Image
	if in.Image != nil && len(in.Image.Content) > 0 {
		stored, err := s.images.Save(ctx, in.Image.Filename, in.Image.Content)
		if err != nil {
			return nil, err
		}
		post.Image = stored.Original
	}

	post.Title = in.Title
	post.Content = in.Content
	post.CategoryID = in.CategoryID
	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != previousImage {
			s.images.Remove(post.Image)
		}
		return nil, err
	}
	if post.Image != previousImage {
		s.images.Remove(previousImage)
	}

	publish(ctx, s.pub, notifications.Event{
		Type:    notifications.PostUpdated,
		PostID:  post.ID,
		ActorID: requesterID,
		Payload: post,
	})
	return post, nil
}

// Delete removes a post owned by requesterID together with its comments.
func (s *PostService) Delete(ctx context.Context, id, requesterID string) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Post not found!")
	}
	if post.AuthorID != requesterID {
		return models.NewUnauthorizedError("You can only delete your own posts!")
	}

	if err := s.postRepo.Delete(ctx, id); err != nil {
		return notFound(err, "Post not found!")
	}
	s.images.Remove(post.Image)

	publish(ctx, s.pub, notifications.Event{
		Type:    notifications.PostDeleted,
		PostID:  id,
		ActorID: requesterID,
	})
	return nil
}

func validateFields(f *PostFields) error {
	f.Title = strings.TrimSpace(f.Title)
	f.Content = strings.TrimSpace(f.Content)
	f.CategoryID = strings.TrimSpace(f.CategoryID)
	if err := validation.Struct(f); err != nil {
		return models.NewValidationError(validation.Message(err))
	}
	return nil
}
