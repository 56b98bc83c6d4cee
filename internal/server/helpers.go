package server

import (
	"io"

	"techsparks/internal/middleware"
	"techsparks/internal/models"
	"techsparks/internal/service"

	"github.com/gofiber/fiber/v2"
)

// pageQuery reads the 1-based page and limit query parameters. Invalid or
// missing values come back as zero and are defaulted by the services.
func pageQuery(c *fiber.Ctx) (page, limit int) {
	return c.QueryInt("page", 0), c.QueryInt("limit", 0)
}

// parseBody decodes the request body (JSON, form or multipart) into dest.
func parseBody(c *fiber.Ctx, dest any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dest); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// formImage reads the optional multipart file field. A request without the
// field yields nil. At most maxBytes+1 bytes are read so the image service
// can still reject oversized uploads with its own message.
func formImage(c *fiber.Ctx, field string, maxBytes int64) (*service.ImageUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.ImageUpload{Filename: fh.Filename, Content: content}, nil
}

// sessionUser returns the account AuthRequired loaded for this request. Routes
// that act on behalf of a user take the author or requester from it.
func sessionUser(c *fiber.Ctx) (*models.User, error) {
	if user := middleware.CurrentUser(c); user != nil {
		return user, nil
	}
	return nil, models.NewUnauthorizedError("Not authorized, please login again!")
}

// ok writes a success envelope. body gains "success": true.
func ok(c *fiber.Ctx, status int, body fiber.Map) error {
	body["success"] = true
	return c.Status(status).JSON(body)
}

func message(c *fiber.Ctx, status int, msg string) error {
	return ok(c, status, fiber.Map{"message": msg})
}
