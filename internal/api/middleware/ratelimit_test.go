package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// windowStart is 30 seconds into a one-minute bucket.
var windowStart = time.Unix(1_700_000_010, 0)

const testClientIP = "192.0.2.1" // httptest.NewRequest's RemoteAddr host

type limiterFixture struct {
	redis   *miniredis.Miniredis
	limiter *RateLimiter
	handler http.Handler
	clock   time.Time
}

func newLimiterFixture(t *testing.T, cfg RateLimiterConfig) *limiterFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	f := &limiterFixture{redis: mr, clock: windowStart}
	f.limiter = NewRateLimiter(client, zerolog.Nop(), cfg)
	f.limiter.now = func() time.Time { return f.clock }
	f.handler = f.limiter.Middleware(okHandler)
	return f
}

func (f *limiterFixture) send(method, path, remoteAddr string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		r.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

func (f *limiterFixture) exhaustPosts(t *testing.T) {
	t.Helper()
	for i := 0; i < 30; i++ {
		require.Equal(t, http.StatusOK, f.send(http.MethodPost, "/", "").Code, "request %d", i+1)
	}
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	req := require.New(t)
	f := newLimiterFixture(t, RateLimiterConfig{})
	req.True(f.limiter.Enabled())

	for i := 0; i < 30; i++ {
		rec := f.send(http.MethodPost, "/", "")
		req.Equal(http.StatusOK, rec.Code)
		req.Equal("30", rec.Header().Get("X-RateLimit-Limit"))
		req.Equal(strconv.Itoa(29-i), rec.Header().Get("X-RateLimit-Remaining"))
		req.Equal("1700000040", rec.Header().Get("X-RateLimit-Reset"))
	}

	rec := f.send(http.MethodPost, "/", "")
	req.Equal(http.StatusTooManyRequests, rec.Code)
	req.Equal("0", rec.Header().Get("X-RateLimit-Remaining"))
	req.Equal("31", rec.Header().Get("Retry-After"))
	req.Equal("application/json", rec.Header().Get("Content-Type"))
	req.JSONEq(`{"error":"rate limit exceeded"}`, rec.Body.String())

	// Reads have their own budget.
	rec = f.send(http.MethodGet, "/", "")
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("120", rec.Header().Get("X-RateLimit-Limit"))
	req.Equal("119", rec.Header().Get("X-RateLimit-Remaining"))

	// Next bucket starts from zero.
	f.clock = windowStart.Add(time.Minute)
	rec = f.send(http.MethodPost, "/", "")
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("29", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_KeysOnRemoteAddr(t *testing.T) {
	req := require.New(t)
	f := newLimiterFixture(t, RateLimiterConfig{})
	f.exhaustPosts(t)

	// Rotating forwarding headers does not open a new budget.
	for _, forwarded := range []string{"203.0.113.1", "203.0.113.2"} {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("X-Forwarded-For", forwarded)
		r.Header.Set("X-Real-IP", forwarded)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, r)
		req.Equal(http.StatusTooManyRequests, rec.Code)
	}

	rec := f.send(http.MethodPost, "/", "198.51.100.7:4000")
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("29", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_FailsOpenWhenRedisErrors(t *testing.T) {
	req := require.New(t)
	f := newLimiterFixture(t, RateLimiterConfig{AutoBlockEnabled: true})
	f.exhaustPosts(t)
	req.Equal(http.StatusTooManyRequests, f.send(http.MethodPost, "/", "").Code)

	f.redis.SetError("ERR simulated outage")
	for i := 0; i < 5; i++ {
		req.Equal(http.StatusOK, f.send(http.MethodPost, "/", "").Code)
	}

	f.redis.SetError("")
	req.Equal(http.StatusTooManyRequests, f.send(http.MethodPost, "/", "").Code)
}

func TestRateLimiter_AutoBlock(t *testing.T) {
	req := require.New(t)
	f := newLimiterFixture(t, RateLimiterConfig{AutoBlockEnabled: true})
	f.exhaustPosts(t)

	for i := 0; i < violationThreshold; i++ {
		req.Equal(http.StatusTooManyRequests, f.send(http.MethodPost, "/", "").Code, "violation %d", i+1)
	}

	req.True(f.redis.Exists(blockKey(testClientIP)))
	req.Equal(autoBlockDuration, f.redis.TTL(blockKey(testClientIP)))
	req.Equal(violationWindow, f.redis.TTL("violations:ip:"+testClientIP))

	rec := f.send(http.MethodGet, "/", "")
	req.Equal(http.StatusForbidden, rec.Code)
	req.JSONEq(`{"error":"temporarily blocked"}`, rec.Body.String())

	// A new window does not lift the block.
	f.clock = windowStart.Add(time.Minute)
	req.Equal(http.StatusForbidden, f.send(http.MethodPost, "/", "").Code)

	req.Equal(http.StatusOK, f.send(http.MethodPost, "/", "198.51.100.7:4000").Code)
}

func TestRateLimiter_AutoBlockDisabled(t *testing.T) {
	req := require.New(t)
	f := newLimiterFixture(t, RateLimiterConfig{})
	f.exhaustPosts(t)

	for i := 0; i < 2*violationThreshold; i++ {
		req.Equal(http.StatusTooManyRequests, f.send(http.MethodPost, "/", "").Code)
	}
	req.False(f.redis.Exists(blockKey(testClientIP)))
	req.False(f.redis.Exists("violations:ip:" + testClientIP))
}

func TestRateLimiter_BlockedIP(t *testing.T) {
	req := require.New(t)
	f := newLimiterFixture(t, RateLimiterConfig{})
	req.NoError(f.redis.Set(blockKey(testClientIP), "manual"))

	rec := f.send(http.MethodGet, "/messages/42", "")
	req.Equal(http.StatusForbidden, rec.Code)
	req.Empty(rec.Header().Get("X-RateLimit-Limit"))

	req.Equal(http.StatusOK, f.send(http.MethodGet, "/messages/42", "198.51.100.7:4000").Code)
}

func TestRateLimiter_WhitelistBypassesLimitsAndBlocks(t *testing.T) {
	req := require.New(t)
	f := newLimiterFixture(t, RateLimiterConfig{Whitelist: []string{"192.0.2.0/24"}})
	req.NoError(f.redis.Set(blockKey(testClientIP), "manual"))

	for i := 0; i < 40; i++ {
		rec := f.send(http.MethodPost, "/", "")
		req.Equal(http.StatusOK, rec.Code)
		req.Empty(rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_UnlimitedPaths(t *testing.T) {
	req := require.New(t)
	f := newLimiterFixture(t, RateLimiterConfig{})

	for _, path := range []string{"/health", "/metrics"} {
		rec := f.send(http.MethodGet, path, "")
		req.Equal(http.StatusOK, rec.Code)
		req.Empty(rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestClientIP(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Equal("10.1.2.3", clientIP(r))

	r.RemoteAddr = "10.1.2.3"
	req.Equal("10.1.2.3", clientIP(r))
}

func TestRateLimiter_Whitelist(t *testing.T) {
	req := require.New(t)
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{
		Whitelist: []string{"10.0.0.1", "192.168.0.0/16", "not-a-cidr/99"},
	})

	req.True(rl.isWhitelisted("10.0.0.1"))
	req.True(rl.isWhitelisted("192.168.44.2"))
	req.False(rl.isWhitelisted("10.0.0.2"))
	req.False(rl.isWhitelisted("garbage"))
	req.Len(rl.whitelist, 1)
}

func TestRateLimiter_FindLimit(t *testing.T) {
	req := require.New(t)
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{})

	limit := rl.findLimit(httptest.NewRequest(http.MethodPost, "/", nil))
	req.NotNil(limit)
	req.Equal(30, limit.Requests)

	limit = rl.findLimit(httptest.NewRequest(http.MethodGet, "/messages/42", nil))
	req.NotNil(limit)
	req.Equal(120, limit.Requests)

	req.Nil(rl.findLimit(httptest.NewRequest(http.MethodGet, "/health", nil)))
	req.Nil(rl.findLimit(httptest.NewRequest(http.MethodGet, "/metrics", nil)))
	req.Nil(rl.findLimit(httptest.NewRequest(http.MethodOptions, "/", nil)))
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	req := require.New(t)
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{})
	req.False(rl.Enabled())

	h := rl.Middleware(okHandler)
	for i := 0; i < 200; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		req.Equal(http.StatusOK, rec.Code)
		req.Empty(rec.Header().Get("X-RateLimit-Limit"))
	}
}

