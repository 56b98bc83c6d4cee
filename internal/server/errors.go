package server

import (
	"errors"
	"fmt"
	"log/slog"

	"techsparks/internal/models"
	"techsparks/internal/observability"
	"techsparks/internal/repository"
	"techsparks/internal/token"
	"techsparks/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const serverErrorMessage = "Server Error"

var codeStatus = map[string]int{
	models.CodeValidation:   fiber.StatusBadRequest,
	models.CodeUnauthorized: fiber.StatusUnauthorized,
	models.CodeNotFound:     fiber.StatusNotFound,
	models.CodeConflict:     fiber.StatusConflict,
	models.CodeInternal:     fiber.StatusInternalServerError,
}

// classify maps any error returned by a handler or middleware to a status and
// client-facing message. known is false for errors outside the taxonomy.
func classify(err error) (status int, message string, known bool) {
	var (
		appErr   *models.AppError
		dup      *repository.DuplicateKeyError
		fiberErr *fiber.Error
		invalid  validator.ValidationErrors
	)

	switch {
	case errors.As(err, &appErr):
		code, ok := codeStatus[appErr.Code]
		if !ok {
			code = fiber.StatusInternalServerError
		}
		return code, appErr.Message, true
	case errors.As(err, &dup):
		return fiber.StatusBadRequest, fmt.Sprintf("Duplicate field value: %s. Please use another value.", dup.Field), true
	case errors.Is(err, repository.ErrInvalidID):
		return fiber.StatusNotFound, "Resource not found", true
	case errors.As(err, &invalid):
		return fiber.StatusBadRequest, validation.Message(invalid), true
	case errors.Is(err, token.ErrExpired):
		return fiber.StatusUnauthorized, "Token expired. Please log in again.", true
	case errors.Is(err, token.ErrInvalid), errors.Is(err, token.ErrMissingIdentity):
		return fiber.StatusUnauthorized, "Invalid token. Please log in again.", true
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message, true
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound, "Resource not found", true
	default:
		return fiber.StatusInternalServerError, err.Error(), false
	}
}

// ErrorHandler is the single place where errors become HTTP responses.
// Outside production the full error chain is echoed as "stack".
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message, known := classify(err)

		if status >= fiber.StatusInternalServerError {
			observability.Logger.ErrorContext(c.UserContext(), "request error",
				slog.String("method", c.Method()),
				slog.String("path", c.OriginalURL()),
				slog.Int("status", status),
				slog.String("error", err.Error()),
			)
			if production && !known {
				message = serverErrorMessage
			}
		}

		body := models.ErrorResponse{
			Success: false,
			Error:   models.ErrorBody{Message: message},
		}
		if !production {
			body.Error.Stack = err.Error()
		}
		return c.Status(status).JSON(body)
	}
}
