// Package middleware provides the Fiber middleware chain: request context,
// structured logging, session authentication, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"techsparks/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// ContextMiddleware copies the request id and the active trace id into the
// request context so the context-aware logger picks them up. The user id is
// added by the auth middleware.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, observability.RequestIDKey, rid)
		}
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			ctx = context.WithValue(ctx, observability.TraceIDKey, sc.TraceID().String())
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger logs one line per request. A handler error is rendered
// through the app's ErrorHandler first so the logged status is the one the
// client receives; the error is then reported as handled.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		renderError(c, err)

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}

		switch {
		case err == nil:
			observability.Logger.InfoContext(c.UserContext(), "request processed", fields...)
		case c.Response().StatusCode() >= fiber.StatusInternalServerError:
			fields = append(fields, slog.String("error", err.Error()))
			observability.Logger.ErrorContext(c.UserContext(), "request failed", fields...)
		default:
			fields = append(fields, slog.String("error", err.Error()))
			observability.Logger.WarnContext(c.UserContext(), "request rejected", fields...)
		}
		return nil
	}
}

// renderError writes err through the app's ErrorHandler. Later middleware
// then sees the final status instead of the 200 default.
func renderError(c *fiber.Ctx, err error) {
	if err == nil {
		return
	}
	if herr := c.App().ErrorHandler(c, err); herr != nil {
		_ = c.SendStatus(fiber.StatusInternalServerError)
	}
}
