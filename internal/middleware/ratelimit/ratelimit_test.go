package ratelimit

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func get(t *testing.T, app *fiber.App, userID string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRateLimiterBurstAndRefill(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	rl := New(Config{MaxRequests: 3, Window: 3 * time.Minute, now: clk.Now})
	defer rl.Stop()
	app := newApp(rl)

	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, get(t, app, "citizen"))
	}
	assert.Equal(t, fiber.StatusTooManyRequests, get(t, app, "citizen"))

	// another client has its own bucket
	assert.Equal(t, fiber.StatusOK, get(t, app, "other"))

	clk.Advance(time.Minute)
	assert.Equal(t, fiber.StatusOK, get(t, app, "citizen"))
	assert.Equal(t, fiber.StatusTooManyRequests, get(t, app, "citizen"))
}

func TestRateLimiterHeaders(t *testing.T) {
	rl := New(Config{MaxRequests: 2, Window: time.Minute})
	defer rl.Stop()
	app := newApp(rl)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Remaining"))

	_, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	rl := New(Config{MaxRequests: 10, Window: time.Minute, now: clk.Now})
	defer rl.Stop()

	rl.allow("a")
	clk.Advance(2 * time.Minute)
	rl.allow("b")

	rl.sweep()

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.NotContains(t, rl.buckets, "a")
	assert.Contains(t, rl.buckets, "b")
}

func TestStopIsIdempotent(t *testing.T) {
	rl := New(Config{CleanupInterval: time.Millisecond})
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
