package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	h := NewRateLimiter(3, false, zap.NewNop()).Middleware(okHandler())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000", ""))
	}
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1000", ""))

	// other clients have their own budget
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1000", ""))
}

func TestRateLimiterDisabled(t *testing.T) {
	for _, perMin := range []int{0, -1} {
		h := NewRateLimiter(perMin, false, zap.NewNop()).Middleware(okHandler())
		for i := 0; i < 50; i++ {
			require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000", ""))
		}
	}
}

func TestRateLimiterIgnoresForwardedForByDefault(t *testing.T) {
	h := NewRateLimiter(1, false, zap.NewNop()).Middleware(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000", "1.1.1.1"))
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1000", "2.2.2.2"))
}

func TestRateLimiterTrustsForwardedForBehindProxy(t *testing.T) {
	h := NewRateLimiter(1, true, zap.NewNop()).Middleware(okHandler())

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000", "1.1.1.1, 10.0.0.1"))
	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000", "2.2.2.2"))
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1000", "1.1.1.1"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(5, false, zap.NewNop())
	l.now = func() time.Time { return now }
	h := l.Middleware(okHandler())

	hit(h, "10.0.0.1:1000", "")
	hit(h, "10.0.0.2:1000", "")
	require.Equal(t, 2, l.Clients())

	now = now.Add(limiterIdle)
	hit(h, "10.0.0.2:1000", "")
	require.Equal(t, 1, l.Clients())
}
