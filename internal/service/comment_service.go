package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"techsparks/internal/models"
	"techsparks/internal/notifications"
	"techsparks/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	pub         notifications.Publisher
}

type CreateCommentInput struct {
	Content         string
	PostID          string
	ParentCommentID string
	AuthorID        string
}

type UpdateCommentInput struct {
	CommentID string
	Content   string
	UserID    string
}

type DeleteCommentInput struct {
	CommentID string
	UserID    string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	pub notifications.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		pub:         pub,
	}
}

// ListTopLevel returns a page of a post's top-level comments, newest first,
// each carrying its direct replies oldest first.
func (s *CommentService) ListTopLevel(ctx context.Context, postID string, page, limit int) ([]models.Comment, models.Pagination, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, models.Pagination{}, err
	}

	page, limit = normalizePage(page, limit, DefaultCommentLimit)
	offset := (page - 1) * limit
	comments, total, err := s.commentRepo.ListTopLevelWithReplies(ctx, postID, offset, limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return comments, models.NewPagination(page, limit, total, "totalComments"), nil
}

// ListReplies returns a page of a comment's direct replies, oldest first.
func (s *CommentService) ListReplies(ctx context.Context, commentID string, page, limit int) ([]models.Comment, models.Pagination, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, models.Pagination{}, notFound(err, "Comment not found!")
	}

	page, limit = normalizePage(page, limit, DefaultReplyLimit)
	offset := (page - 1) * limit
	replies, total, err := s.commentRepo.ListReplies(ctx, commentID, offset, limit)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return replies, models.NewPagination(page, limit, total, "totalReplies"), nil
}

func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := cleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	postID := strings.TrimSpace(in.PostID)
	if postID == "" {
		return nil, models.NewValidationError("Post ID is required!")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:  content,
		PostID:   postID,
		AuthorID: in.AuthorID,
	}
	if parentID := strings.TrimSpace(in.ParentCommentID); parentID != "" {
		if _, err := s.commentRepo.GetByID(ctx, parentID); err != nil {
			return nil, notFound(err, "Parent comment not found!")
		}
		comment.ParentCommentID = &parentID
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	publish(ctx, s.pub, notifications.Event{
		Type:    notifications.CommentCreated,
		PostID:  comment.PostID,
		ActorID: in.AuthorID,
		Payload: comment,
	})
	return comment, nil
}

// Update replaces the content of a comment owned by the caller and marks it edited.
func (s *CommentService) Update(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	content, err := cleanContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFound(err, "Comment not found!")
	}
	if comment.AuthorID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only edit your own comments!")
	}

	comment.Content = content
	comment.IsEdited = true
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	publish(ctx, s.pub, notifications.Event{
		Type:    notifications.CommentUpdated,
		PostID:  comment.PostID,
		ActorID: in.UserID,
		Payload: comment,
	})
	return comment, nil
}

// Delete removes a comment owned by the caller along with its direct replies
// and reports how many comments were removed.
func (s *CommentService) Delete(ctx context.Context, in DeleteCommentInput) (int64, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return 0, notFound(err, "Comment not found!")
	}
	if comment.AuthorID != in.UserID {
		return 0, models.NewUnauthorizedError("You can only delete your own comments!")
	}

	removed, err := s.commentRepo.DeleteWithReplies(ctx, comment.ID)
	if err != nil {
		return 0, err
	}

	publish(ctx, s.pub, notifications.Event{
		Type:    notifications.CommentDeleted,
		PostID:  comment.PostID,
		ActorID: in.UserID,
		Payload: map[string]interface{}{"commentId": comment.ID, "removed": removed},
	})
	return removed, nil
}

func (s *CommentService) requirePost(ctx context.Context, postID string) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return notFound(err, "Post not found!")
	}
	if !exists {
		return models.NewNotFoundError("Post not found!")
	}
	return nil
}

func cleanContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", models.NewValidationError("Comment content is required!")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return "", models.NewValidationError(fmt.Sprintf("Comment cannot exceed %d characters", models.MaxCommentLength))
	}
	return content, nil
}
