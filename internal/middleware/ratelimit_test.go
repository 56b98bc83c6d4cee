package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Check(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	tests := []struct {
		name     string
		limiter  *RateLimiter
		expected []bool
		wantErr  bool
	}{
		{"development bypass", NewRateLimiter(nil, "development"), []bool{true, true, true}, false},
		{"test bypass", NewRateLimiter(nil, "test"), []bool{true, true, true}, false},
		{"production counts", NewRateLimiter(rdb, "production"), []bool{true, true, false}, false},
		{"nil client errors", NewRateLimiter(nil, "production"), []bool{false}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.expected {
				allowed, err := tt.limiter.Check(ctx, "login:"+tt.name, "ip:1.2.3.4", 2, time.Minute)
				if tt.wantErr {
					assert.Error(t, err)
				} else {
					require.NoError(t, err)
				}
				assert.Equal(t, want, allowed, "request %d", i+1)
			}
		})
	}

	assert.True(t, mr.TTL("rl:login:production counts:ip:1.2.3.4") > 0)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	l := NewRateLimiter(rdb, "production")
	ctx := context.Background()

	allowed, _ := l.Check(ctx, "r", "id", 1, time.Minute)
	assert.True(t, allowed)
	allowed, _ = l.Check(ctx, "r", "id", 1, time.Minute)
	assert.False(t, allowed)

	mr.FastForward(2 * time.Minute)
	allowed, _ = l.Check(ctx, "r", "id", 1, time.Minute)
	assert.True(t, allowed)
}

func TestRateLimiter_Limit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app := fiber.New()
	app.Post("/login", NewRateLimiter(rdb, "production").Limit("login", 1, time.Minute, FailOpen),
		func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRateLimiter_FailurePolicies(t *testing.T) {
	l := NewRateLimiter(nil, "production")
	ok := func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) }

	app := fiber.New()
	app.Get("/open", l.Limit("open", 1, time.Minute, FailOpen), ok)
	app.Get("/closed", l.Limit("closed", 1, time.Minute, FailClosed), ok)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/closed", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
