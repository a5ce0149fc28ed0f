package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memCounter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func TestLimiter_Allow(t *testing.T) {
	counter := &memCounter{}
	l := New(counter, "login", 2, time.Minute, nil)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "1.2.3.4"))
	assert.True(t, l.Allow(ctx, "1.2.3.4"))
	assert.False(t, l.Allow(ctx, "1.2.3.4"))
	assert.True(t, l.Allow(ctx, "5.6.7.8"), "other clients have their own window")
	assert.Equal(t, int64(3), counter.counts["rl:login:1.2.3.4"])
}

func TestLimiter_FailsOpen(t *testing.T) {
	l := New(&memCounter{err: errors.New("connection refused")}, "login", 1, time.Minute, nil)
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow(context.Background(), "1.2.3.4"))
	}
}

func TestLimiter_NilCounterDisables(t *testing.T) {
	l := New(nil, "login", 1, time.Minute, nil)
	assert.True(t, l.Allow(context.Background(), "x"))
	assert.True(t, l.Allow(context.Background(), "x"))

	var none *Limiter
	assert.True(t, none.Allow(context.Background(), "x"))
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(&memCounter{}, "login", 1, time.Minute, nil)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:4000"
	assert.Equal(t, "192.168.1.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}
