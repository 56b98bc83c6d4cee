package server

import (
	"techsparks/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPostComments handles GET /api/comments/post/:postId
// @Summary Top-level comments of a post
// @Description Newest first; each comment carries its replies oldest first
// @Tags comments
// @Produce json
// @Param postId path string true "Post ID"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} object{success=bool,comments=[]models.Comment,pagination=models.Pagination}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/post/{postId} [get]
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	comments, pagination, err := s.commentService.ListTopLevel(c.UserContext(), c.Params("postId"), page, limit)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"comments": comments, "pagination": pagination})
}

// GetCommentReplies handles GET /api/comments/:commentId/replies
// @Summary Replies to a comment
// @Tags comments
// @Produce json
// @Param commentId path string true "Comment ID"
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size" default(5)
// @Success 200 {object} object{success=bool,replies=[]models.Comment,pagination=models.Pagination}
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId}/replies [get]
func (s *Server) GetCommentReplies(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	replies, pagination, err := s.commentService.ListReplies(c.UserContext(), c.Params("commentId"), page, limit)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"replies": replies, "pagination": pagination})
}

// CreateComment handles POST /api/comments/create
// @Summary Comment on a post or reply to a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param request body object{content=string,postId=string,parentCommentId=string} true "Comment"
// @Success 201 {object} object{success=bool,message=string,comment=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/create [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	var req struct {
		Content         string `json:"content" form:"content"`
		PostID          string `json:"postId" form:"postId"`
		ParentCommentID string `json:"parentCommentId" form:"parentCommentId"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := s.commentService.Create(c.UserContext(), service.CreateCommentInput{
		Content:         req.Content,
		PostID:          req.PostID,
		ParentCommentID: req.ParentCommentID,
		AuthorID:        user.ID,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

// UpdateComment handles PUT /api/comments/:commentId
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param commentId path string true "Comment ID"
// @Param request body object{content=string} true "New content"
// @Success 200 {object} object{success=bool,message=string,comment=models.Comment}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	comment, err := s.commentService.Update(c.UserContext(), service.UpdateCommentInput{
		CommentID: c.Params("commentId"),
		Content:   req.Content,
		UserID:    user.ID,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"message": "Comment updated successfully",
		"comment": comment,
	})
}

// DeleteComment handles DELETE /api/comments/:commentId
// @Summary Delete a comment and its replies
// @Tags comments
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	_, err = s.commentService.Delete(c.UserContext(), service.DeleteCommentInput{
		CommentID: c.Params("commentId"),
		UserID:    user.ID,
	})
	if err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Comment deleted successfully")
}
