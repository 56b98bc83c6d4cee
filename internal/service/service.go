// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"techsparks/internal/models"
	"techsparks/internal/notifications"
	"techsparks/internal/observability"
	"techsparks/internal/repository"
)

// Listing defaults shared by the paginated endpoints.
const (
	DefaultPage         = 1
	DefaultPostLimit    = 6
	DefaultCommentLimit = 10
	DefaultReplyLimit   = 5
	MaxPageLimit        = 100
)

// normalizePage applies the defaults to page and limit. Values below 1 fall
// back to the defaults and limit is capped at MaxPageLimit.
func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// notFound turns a missing row into a NotFound AppError carrying msg.
// Malformed ids pass through so the boundary can report them on its own terms.
func notFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError(msg)
	}
	return err
}

// publish emits ev when a publisher is wired. Delivery failures never fail the request.
func publish(ctx context.Context, pub notifications.Publisher, ev notifications.Event) {
	if pub == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if err := pub.Publish(ctx, ev); err != nil {
		observability.Logger.WarnContext(ctx, "failed to publish event",
			slog.String("event_type", ev.Type),
			slog.String("error", err.Error()),
		)
	}
}
