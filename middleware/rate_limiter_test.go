package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	handler := limitedHandler(rl)

	for i := 0; i < burstSize; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "198.51.100.1:1234"), "request %d inside burst", i)
	}

	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "198.51.100.1:1234"))
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	handler := limitedHandler(rl)

	for i := 0; i < burstSize+1; i++ {
		hit(handler, "198.51.100.2:1234")
	}
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "198.51.100.2:1234"))

	// A different address gets its own bucket.
	assert.Equal(t, http.StatusOK, hit(handler, "198.51.100.3:1234"))
}

func TestRateLimiterPrefersForwardedFor(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	handler := limitedHandler(rl)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rl.mu.Lock()
	_, tracked := rl.clients["203.0.113.7"]
	rl.mu.Unlock()
	assert.True(t, tracked, "should track the first forwarded hop")
}

func TestRateLimiterSweepEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter()
	defer rl.Stop()
	handler := limitedHandler(rl)

	require.Equal(t, http.StatusOK, hit(handler, "198.51.100.4:1234"))

	rl.mu.Lock()
	rl.clients["198.51.100.4"].lastSeen = time.Now().Add(-clientIdleTimeout - time.Minute)
	rl.mu.Unlock()

	rl.sweep()

	rl.mu.Lock()
	_, exists := rl.clients["198.51.100.4"]
	rl.mu.Unlock()
	assert.False(t, exists)
}
