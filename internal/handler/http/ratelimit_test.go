package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(1, 2, zap.NewNop())
	defer rl.Stop()

	handler := rl.Limit(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec.Code
	}

	t.Run("burst_then_reject", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do("1.1.1.1"))
		assert.Equal(t, http.StatusOK, do("1.1.1.1"))
		assert.Equal(t, http.StatusTooManyRequests, do("1.1.1.1"))
	})

	t.Run("other_ip_unaffected", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do("2.2.2.2"))
	})
}

func TestRateLimiter_Stop(t *testing.T) {
	rl := NewRateLimiter(1, 1, zap.NewNop())

	stopped := make(chan struct{})
	go func() {
		rl.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweep goroutine did not exit after Stop")
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1, zap.NewNop())
	defer rl.Stop()

	rl.allow("3.3.3.3")
	rl.mu.Lock()
	rl.visitors["3.3.3.3"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.evictIdle(10 * time.Minute)

	rl.mu.Lock()
	_, ok := rl.visitors["3.3.3.3"]
	rl.mu.Unlock()
	assert.False(t, ok)
}
