package mailer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"techsparks/internal/observability"

	"github.com/sony/gobreaker"
)

// BreakerSettings tunes the circuit breaker in front of the relay.
type BreakerSettings struct {
	MaxFailures uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// DefaultBreakerSettings opens after five consecutive failures and probes
// again after thirty seconds.
var DefaultBreakerSettings = BreakerSettings{
	MaxFailures: 5,
	Interval:    time.Minute,
	Timeout:     30 * time.Second,
}

type breakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker wraps next so a failing relay is skipped while the breaker is open.
// ErrNotConfigured does not count as a relay failure.
func WithBreaker(next Sender, s BreakerSettings) Sender {
	st := gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotConfigured)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.Logger.Warn("circuit breaker state",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
	return &breakerSender{next: next, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *breakerSender) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, msg)
	})
	return err
}
