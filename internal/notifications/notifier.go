// Package notifications publishes domain events over Redis pub/sub and feeds
// the live comment stream.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"techsparks/internal/observability"

	"github.com/redis/go-redis/v9"
)

// EventsChannel carries every domain event.
const EventsChannel = "techsparks:events"

// Event types.
const (
	PostCreated     = "post_created"
	PostUpdated     = "post_updated"
	PostDeleted     = "post_deleted"
	CommentCreated  = "comment_created"
	CommentUpdated  = "comment_updated"
	CommentDeleted  = "comment_deleted"
	CategoryChanged = "category_changed"
)

// Event is the JSON envelope published for every change.
type Event struct {
	Type      string      `json:"type"`
	PostID    string      `json:"postId,omitempty"`
	ActorID   string      `json:"actorId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher is what the services depend on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Notifier provides helpers to publish events into Redis channels.
// A Notifier without a client drops everything.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PostCommentsChannel derives the Redis channel of a post's comment stream.
func PostCommentsChannel(postID string) string {
	return "comments:post:" + postID
}

func isCommentEvent(t string) bool {
	return t == CommentCreated || t == CommentUpdated || t == CommentDeleted
}

// Publish sends ev to the events channel, and comment events also to the
// post's comment channel.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	observability.DomainEvents.WithLabelValues(ev.Type).Inc()
	if err := n.rdb.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		return err
	}
	if isCommentEvent(ev.Type) && ev.PostID != "" {
		return n.rdb.Publish(ctx, PostCommentsChannel(ev.PostID), payload).Err()
	}
	return nil
}

// SubscribePostComments subscribes to the comment channel of postID and calls
// onMessage for each payload until ctx is cancelled. The subscription is
// confirmed before SubscribePostComments returns.
func (n *Notifier) SubscribePostComments(
	ctx context.Context, postID string, onMessage func(payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.start(ctx, "PostCommentsSubscriber", n.rdb.Subscribe(ctx, PostCommentsChannel(postID)),
		func(_ string, payload string) { onMessage(payload) })
}

// StartEventSubscriber subscribes to the events channel.
func (n *Notifier) StartEventSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.start(ctx, "EventSubscriber", n.rdb.Subscribe(ctx, EventsChannel), onMessage)
}

func (n *Notifier) start(
	ctx context.Context, name string, sub *redis.PubSub, onMessage func(channel string, payload string),
) error {
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
