package server

import (
	"techsparks/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postForm struct {
	Title    string `form:"title" json:"title"`
	Content  string `form:"content" json:"content"`
	Category string `form:"category" json:"category"`
}

func (f postForm) fields() service.PostFields {
	return service.PostFields{Title: f.Title, Content: f.Content, CategoryID: f.Category}
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Paginated posts with optional search, category filter and sort
// @Tags posts
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size" default(6)
// @Param search query string false "Case-insensitive match on title or content"
// @Param category query string false "Category ID"
// @Param sortBy query string false "createdAt or title" default(createdAt)
// @Param sortOrder query string false "asc or desc" default(desc)
// @Success 200 {object} object{success=bool,posts=[]models.Post,pagination=models.Pagination}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	posts, pagination, err := s.postService.List(c.UserContext(), service.ListPostsInput{
		Page:      page,
		Limit:     limit,
		Search:    c.Query("search"),
		Category:  c.Query("category"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"posts": posts, "pagination": pagination})
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} object{success=bool,post=models.Post}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"post": post})
}

// CreatePost handles POST /api/posts/create
// @Summary Create a post
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param category formData string true "Category ID"
// @Param image formData file true "Cover image"
// @Success 201 {object} object{success=bool,message=string,post=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts/create [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	var form postForm
	if err := parseBody(c, &form); err != nil {
		return err
	}
	image, err := formImage(c, "image", s.imageService.MaxUploadBytes())
	if err != nil {
		return err
	}

	post, err := s.postService.Create(c.UserContext(), service.CreatePostInput{
		PostFields: form.fields(),
		AuthorID:   user.ID,
		Image:      image,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// UpdatePost handles PUT /api/posts/update/:id
// @Summary Update a post
// @Description Only the author may update. The image is replaced only when a new one is uploaded.
// @Tags posts
// @Accept mpfd
// @Produce json
// @Param id path string true "Post ID"
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param category formData string true "Category ID"
// @Param image formData file false "New cover image"
// @Success 200 {object} object{success=bool,post=models.Post}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/update/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	var form postForm
	if err := parseBody(c, &form); err != nil {
		return err
	}
	image, err := formImage(c, "image", s.imageService.MaxUploadBytes())
	if err != nil {
		return err
	}

	post, err := s.postService.Update(c.UserContext(), c.Params("id"), service.UpdatePostInput{
		PostFields: form.fields(),
		Image:      image,
	}, user.ID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"post": post})
}

// DeletePost handles DELETE /api/posts/delete/:id
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/delete/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	if err := s.postService.Delete(c.UserContext(), c.Params("id"), user.ID); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Post deleted successfully")
}
