package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedHandler(l *IPRateLimiter) echo.HandlerFunc {
	return l.Middleware()(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

func callFrom(e *echo.Echo, handler echo.HandlerFunc, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	return rec.Code
}

func frozenLimiter(rps, burst int) (*IPRateLimiter, *time.Time) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(rps, burst)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	e := echo.New()
	limiter, _ := frozenLimiter(5, 10)
	handler := limitedHandler(limiter)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, callFrom(e, handler, "192.168.1.100:12345"), "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, callFrom(e, handler, "192.168.1.100:12345"))
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	e := echo.New()
	limiter, now := frozenLimiter(5, 1)
	handler := limitedHandler(limiter)

	assert.Equal(t, http.StatusOK, callFrom(e, handler, "10.0.0.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, callFrom(e, handler, "10.0.0.1:1"))

	*now = now.Add(250 * time.Millisecond)
	assert.Equal(t, http.StatusOK, callFrom(e, handler, "10.0.0.1:1"))
}

func TestRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	e := echo.New()
	limiter, _ := frozenLimiter(1, 1)
	handler := limitedHandler(limiter)

	assert.Equal(t, http.StatusOK, callFrom(e, handler, "10.0.0.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, callFrom(e, handler, "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, callFrom(e, handler, "10.0.0.2:1"))
}

func TestRateLimiter_RejectionUsesErrorEnvelope(t *testing.T) {
	e := echo.New()
	limiter, _ := frozenLimiter(1, 1)
	handler := limitedHandler(limiter)
	callFrom(e, handler, "10.0.0.1:1")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "SYSTEM_006")
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	limiter, now := frozenLimiter(1, 1)
	limiter.allow("10.0.0.1")
	*now = now.Add(2 * time.Minute)
	limiter.allow("10.0.0.2")

	*now = now.Add(2 * time.Minute)
	limiter.evictIdle(3 * time.Minute)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.visitors, "10.0.0.1")
	assert.Contains(t, limiter.visitors, "10.0.0.2")
}

func TestRateLimiter_CleanupStopsWithContext(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		limiter.Cleanup(ctx, time.Millisecond, time.Minute)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop after cancel")
	}
}
