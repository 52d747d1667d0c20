package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplan-bot/backend/internal/database"
	"github.com/pageza/mealplan-bot/backend/internal/testhelpers"
	"github.com/pageza/mealplan-bot/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sender": c.GetString(SenderIDKey), "request_id": c.GetString(RequestIDKey)})
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeValidator struct{}

func (fakeValidator) ValidateToken(token string) (*types.ActionClaims, error) {
	if token != "good" {
		return nil, errors.New("signature is invalid")
	}
	return &types.ActionClaims{SenderID: "user-1"}, nil
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(AuthMiddleware(fakeValidator{}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization header format"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "invalid authorization header format"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "invalid token"},
		{"good token", "Bearer good", http.StatusOK, ""},
		{"lowercase scheme", "bearer good", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := get(r, "/ping", headers)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.Equal(t, "user-1", body["sender"])
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := get(r, "/ping", nil)
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	w = get(r, "/ping", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"request_id":"abc-123"`)
}

func TestRecovery(t *testing.T) {
	r := newEngine(RequestID(), Logger(), Recovery())

	w := get(r, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
}

func TestCORS(t *testing.T) {
	t.Run("listed origin", func(t *testing.T) {
		r := newEngine(CORS([]string{"http://localhost:5173"}))

		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", "GET")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		r := newEngine(CORS([]string{"http://localhost:5173"}))
		w := get(r, "/ping", map[string]string{"Origin": "http://evil.example"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("wildcard", func(t *testing.T) {
		r := newEngine(CORS([]string{"*"}))
		w := get(r, "/ping", map[string]string{"Origin": "http://anything.example"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestLocalLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(RateLimitConfig{Limit: 3, Window: time.Minute})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.True(t, d.Reset.After(now))

	other, err := l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are limited independently")

	now = now.Add(21 * time.Second)
	d, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed, "one token refills every window/limit")
}

func TestLocalLimiterEvictsIdleKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLocalLimiter(RateLimitConfig{Limit: 1, Window: time.Second})
	l.now = func() time.Time { return now }

	l.entries["stale"] = &localEntry{lastSeen: now.Add(-time.Hour)}
	l.entries["fresh"] = &localEntry{lastSeen: now}
	l.evictIdle(now)

	assert.NotContains(t, l.entries, "stale")
	assert.Contains(t, l.entries, "fresh")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis: connection refused")
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks after limit", func(t *testing.T) {
		r := newEngine(RateLimit(NewLocalLimiter(RateLimitConfig{Limit: 2, Window: time.Hour}), nil))

		for i := 0; i < 2; i++ {
			w := get(r, "/ping", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		}

		w := get(r, "/ping", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate limit exceeded")
	})

	t.Run("sender from token is the key", func(t *testing.T) {
		var keys []string
		keyFn := func(c *gin.Context) string {
			k := SenderOrIP(c)
			keys = append(keys, k)
			return k
		}
		r := newEngine(AuthMiddleware(fakeValidator{}), RateLimit(NewLocalLimiter(RateLimitConfig{Limit: 5, Window: time.Minute}), keyFn))

		get(r, "/ping", map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, []string{"sender:user-1"}, keys)
	})

	t.Run("limiter failure lets the request through", func(t *testing.T) {
		r := newEngine(RateLimit(failingLimiter{}, nil))

		w := get(r, "/ping", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
	})
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	client, err := database.NewRedisClient(ctx, testhelpers.RedisURL(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, RateLimitConfig{Limit: 2, Window: time.Minute, KeyPrefix: "test:" + uuid.NewString()})
	key := uuid.NewString()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := l.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}
