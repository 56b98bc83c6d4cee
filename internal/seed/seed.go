// Package seed fills a database with demo blog data for development and
// manual testing.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"strings"

	"techsparks/internal/models"
	"techsparks/internal/repository"
	"techsparks/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Password123!"

var categoryNames = []string{
	"Go", "JavaScript", "DevOps", "Cloud", "Security", "AI",
	"Databases", "Frontend", "Career", "Open Source",
}

// Stores are the repositories the seeder writes through.
type Stores struct {
	Users      repository.UserRepository
	Categories repository.CategoryRepository
	Posts      repository.PostRepository
	Comments   repository.CommentRepository
}

// Options controls how much data is generated.
type Options struct {
	Users             int
	Categories        int
	Posts             int
	CommentsPerPost   int
	RepliesPerComment int
}

// Summary counts what a run created.
type Summary struct {
	Users      int
	Categories int
	Posts      int
	Comments   int
	Replies    int
}

// Seeder generates users, categories, posts and threaded comments.
type Seeder struct {
	stores   Stores
	images   *service.ImageService
	faker    *gofakeit.Faker
	hashCost int
}

// NewSeeder creates a Seeder. The same seed yields the same content. A nil
// images service leaves posts without a cover file.
func NewSeeder(stores Stores, images *service.ImageService, seed int64) *Seeder {
	return &Seeder{
		stores:   stores,
		images:   images,
		faker:    gofakeit.New(seed),
		hashCost: bcrypt.DefaultCost,
	}
}

// Run generates data according to opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary

	users, err := s.createUsers(ctx, opts.Users)
	if err != nil {
		return sum, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)

	categories, err := s.ensureCategories(ctx, opts.Categories)
	if err != nil {
		return sum, fmt.Errorf("failed to create categories: %w", err)
	}
	sum.Categories = len(categories)
	log.Printf("✓ %d categories available", sum.Categories)

	if len(users) == 0 || len(categories) == 0 {
		return sum, nil
	}

	for i := 0; i < opts.Posts; i++ {
		post, err := s.createPost(ctx, s.pickUser(users), categories[s.faker.Number(0, len(categories)-1)])
		if err != nil {
			return sum, fmt.Errorf("failed to create post: %w", err)
		}
		sum.Posts++

		for j := 0; j < opts.CommentsPerPost; j++ {
			parent, err := s.createComment(ctx, post.ID, nil, s.pickUser(users))
			if err != nil {
				return sum, fmt.Errorf("failed to create comment: %w", err)
			}
			sum.Comments++

			for k := 0; k < opts.RepliesPerComment; k++ {
				if _, err := s.createComment(ctx, post.ID, &parent.ID, s.pickUser(users)); err != nil {
					return sum, fmt.Errorf("failed to create reply: %w", err)
				}
				sum.Replies++
			}
		}
	}
	log.Printf("✓ %d posts, %d comments, %d replies created", sum.Posts, sum.Comments, sum.Replies)

	return sum, nil
}

func (s *Seeder) pickUser(users []*models.User) *models.User {
	return users[s.faker.Number(0, len(users)-1)]
}

func (s *Seeder) createUsers(ctx context.Context, count int) ([]*models.User, error) {
	if count <= 0 {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), s.hashCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		first, last := s.faker.FirstName(), s.faker.LastName()
		user := &models.User{
			Name:              first + " " + last,
			Email:             strings.ToLower(fmt.Sprintf("%s.%s.%d@techsparks.dev", first, last, s.faker.Number(1000, 9999))),
			Password:          string(hash),
			IsAccountVerified: s.faker.Bool(),
		}
		if err := s.stores.Users.Create(ctx, user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// ensureCategories reuses categories that already exist by name.
func (s *Seeder) ensureCategories(ctx context.Context, count int) ([]*models.Category, error) {
	if count > len(categoryNames) {
		count = len(categoryNames)
	}

	categories := make([]*models.Category, 0, count)
	for _, name := range categoryNames[:max(count, 0)] {
		existing, err := s.stores.Categories.GetByName(ctx, name)
		if err == nil {
			categories = append(categories, existing)
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		category := &models.Category{Name: name, Description: s.faker.Sentence(8)}
		if err := s.stores.Categories.Create(ctx, category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (s *Seeder) createPost(ctx context.Context, author *models.User, category *models.Category) (*models.Post, error) {
	post := &models.Post{
		Title:      strings.TrimSuffix(s.faker.Sentence(6), "."),
		Content:    s.faker.Paragraph(3, 4, 12, "\n\n"),
		AuthorID:   author.ID,
		CategoryID: category.ID,
	}

	if s.images != nil {
		cover, err := s.coverImage()
		if err != nil {
			return nil, err
		}
		stored, err := s.images.Save(ctx, "cover.png", cover)
		if err != nil {
			return nil, err
		}
		post.Image = stored.Original
	}

	if err := s.stores.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Seeder) createComment(ctx context.Context, postID string, parentID *string, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		Content:         s.faker.Sentence(s.faker.Number(4, 20)),
		PostID:          postID,
		AuthorID:        author.ID,
		ParentCommentID: parentID,
	}
	if err := s.stores.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// coverImage renders a two-tone 640x360 PNG.
func (s *Seeder) coverImage() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	top := color.RGBA{R: s.faker.Uint8(), G: s.faker.Uint8(), B: s.faker.Uint8(), A: 255}
	bottom := color.RGBA{R: 255 - top.R, G: 255 - top.G, B: 255 - top.B, A: 255}
	for y := 0; y < 360; y++ {
		c := top
		if y >= 180 {
			c = bottom
		}
		for x := 0; x < 640; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
