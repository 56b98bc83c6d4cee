package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"techsparks/internal/models"
	"techsparks/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const liveWriteTimeout = 10 * time.Second

var liveLog = observability.NewWSLogger("live_comments")

// LiveCommentsUpgrade rejects non-websocket requests and unknown posts before
// the connection is upgraded.
func (s *Server) LiveCommentsUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	exists, err := s.repos.Posts.Exists(c.UserContext(), c.Params("postId"))
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Post not found!")
	}
	return c.Next()
}

// LiveCommentsHandler streams the comment events of one post. The first frame
// confirms the subscription; every following frame is a published event.
// @Summary Live comment stream
// @Tags comments
// @Param postId path string true "Post ID"
// @Success 101
// @Failure 404 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /comments/post/{postId}/live [get]
func (s *Server) LiveCommentsHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.LiveConnections.Inc()
		defer observability.LiveConnections.Dec()

		postID := conn.Params("postId")
		base := s.shutdownCtx
		if base == nil {
			base = context.Background()
		}
		ctx, cancel := context.WithCancel(base)
		defer cancel()

		frames := make(chan string, 32)
		err := s.notifier.SubscribePostComments(ctx, postID, func(payload string) {
			select {
			case frames <- payload:
			default:
				// slow reader; drop the frame
			}
		})
		if err != nil {
			liveLog.LogError(ctx, postID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"live updates unavailable"}`))
			_ = conn.Close()
			return
		}
		liveLog.LogConnect(ctx, postID)

		hello, _ := json.Marshal(fiber.Map{"type": "subscribed", "postId": postID})
		if err := conn.WriteMessage(websocket.TextMessage, hello); err != nil {
			liveLog.LogDisconnect(ctx, postID, "write failed")
			return
		}

		// Clients never send; reading only detects the close.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				reason := "client closed"
				if errors.Is(base.Err(), context.Canceled) {
					reason = "server shutdown"
				}
				liveLog.LogDisconnect(ctx, postID, reason)
				return
			case frame := <-frames:
				_ = conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
					liveLog.LogError(ctx, postID, err)
					return
				}
			}
		}
	})
}
