package server

import (
	"techsparks/internal/service"

	"github.com/gofiber/fiber/v2"
)

type categoryRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

// GetCategories handles GET /api/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} object{success=bool,categories=[]models.Category}
// @Router /categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.categoryService.List(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"categories": categories})
}

// GetCategory handles GET /api/categories/:id
// @Summary Get a category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} object{success=bool,category=models.Category}
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	category, err := s.categoryService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"category": category})
}

// CreateCategory handles POST /api/categories/create
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string} true "Category"
// @Success 201 {object} object{success=bool,category=models.Category}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/create [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	category, err := s.categoryService.Create(c.UserContext(), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ActorID:     user.ID,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"category": category})
}

// UpdateCategory handles PUT /api/categories/update/:id
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param request body object{name=string,description=string} true "Category"
// @Success 200 {object} object{success=bool,message=string,category=models.Category}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/update/{id} [put]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	category, err := s.categoryService.Update(c.UserContext(), c.Params("id"), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ActorID:     user.ID,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"message":  "Category updated successfully",
		"category": category,
	})
}

// DeleteCategory handles DELETE /api/categories/delete/:id
// @Summary Delete a category
// @Description Posts keep their category id; a dangling category is rendered as null.
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/delete/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	user, err := sessionUser(c)
	if err != nil {
		return err
	}
	if err := s.categoryService.Delete(c.UserContext(), c.Params("id"), user.ID); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Category deleted successfully")
}
