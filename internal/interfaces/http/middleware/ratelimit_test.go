package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// hit sends one request through the router, optionally from a fixed
// remote address.
func hit(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func okRouter(mw gin.HandlerFunc, method, path string) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.Handle(method, path, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRateLimiter(t *testing.T) {
	t.Run("grants tokens up to the limit", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("warehouse-a"), "request %d should pass", i+1)
		}
		assert.False(t, limiter.Allow("warehouse-a"))
	})

	t.Run("keys are isolated", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("warehouse-a"))
		assert.True(t, limiter.Allow("warehouse-a"))
		assert.False(t, limiter.Allow("warehouse-a"))

		assert.True(t, limiter.Allow("warehouse-b"))
		assert.True(t, limiter.Allow("warehouse-b"))
	})

	t.Run("window expiry refills the bucket", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)

		assert.True(t, limiter.Allow("warehouse-a"))
		assert.True(t, limiter.Allow("warehouse-a"))
		assert.False(t, limiter.Allow("warehouse-a"))

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow("warehouse-a"))
	})

	t.Run("remaining tracks consumed tokens", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("warehouse-a"))

		limiter.Allow("warehouse-a")
		limiter.Allow("warehouse-a")

		assert.Equal(t, 3, limiter.Remaining("warehouse-a"))
	})

	t.Run("enforces the limit under concurrency", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("passes requests within the limit", func(t *testing.T) {
		router := okRouter(RateLimit(NewRateLimiter(3, time.Minute)), http.MethodGet, "/products")

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/products", "").Code)
		}
	})

	t.Run("responds 429 once exhausted", func(t *testing.T) {
		router := okRouter(RateLimit(NewRateLimiter(2, time.Minute)), http.MethodGet, "/products")

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/products", "").Code)
		}

		rec := hit(router, http.MethodGet, "/products", "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("keys requests by client IP", func(t *testing.T) {
		router := okRouter(RateLimit(NewRateLimiter(1, time.Minute)), http.MethodGet, "/products")

		assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/products", "10.0.0.1:12345").Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(router, http.MethodGet, "/products", "10.0.0.1:12345").Code)

		// A different host still has its own budget.
		assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/products", "10.0.0.2:12345").Code)
	})
}

func TestRateLimitByKey(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	router := okRouter(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.GetHeader("X-User-ID")
	}), http.MethodGet, "/products")

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set("X-User-ID", user)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("operator").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("operator").Code)
}

func TestAuthRateLimit(t *testing.T) {
	const addr = "192.168.1.100:12345"

	t.Run("passes attempts within the limit", func(t *testing.T) {
		router := okRouter(AuthRateLimit(NewRateLimiter(5, time.Minute)), http.MethodPost, "/login")

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(router, http.MethodPost, "/login", addr).Code, "attempt %d should pass", i+1)
		}
	})

	t.Run("responds with the auth-specific error once exhausted", func(t *testing.T) {
		router := okRouter(AuthRateLimit(NewRateLimiter(3, time.Minute)), http.MethodPost, "/login")

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, hit(router, http.MethodPost, "/login", addr).Code)
		}

		rec := hit(router, http.MethodPost, "/login", addr)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "AUTH_RATE_LIMIT_EXCEEDED")
		assert.Contains(t, rec.Body.String(), "Too many authentication attempts")
	})

	t.Run("exposes limit headers on success", func(t *testing.T) {
		router := okRouter(AuthRateLimit(NewRateLimiter(5, time.Minute)), http.MethodPost, "/login")

		rec := hit(router, http.MethodPost, "/login", addr)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("sets Retry-After from the window when blocked", func(t *testing.T) {
		router := okRouter(AuthRateLimit(NewRateLimiter(1, time.Minute)), http.MethodPost, "/login")

		hit(router, http.MethodPost, "/login", addr)

		rec := hit(router, http.MethodPost, "/login", addr)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("limits each source address independently", func(t *testing.T) {
		router := okRouter(AuthRateLimit(NewRateLimiter(2, time.Minute)), http.MethodPost, "/login")

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, hit(router, http.MethodPost, "/login", "192.168.1.1:12345").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(router, http.MethodPost, "/login", "192.168.1.1:12345").Code)

		assert.Equal(t, http.StatusOK, hit(router, http.MethodPost, "/login", "192.168.1.2:12345").Code)
	})

	t.Run("auth keys do not collide with the global limiter", func(t *testing.T) {
		authLimiter := NewRateLimiter(2, time.Minute)
		globalLimiter := NewRateLimiter(100, time.Minute)

		router := gin.New()
		authGroup := router.Group("/auth")
		authGroup.Use(AuthRateLimit(authLimiter))
		authGroup.POST("/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		router.Use(RateLimit(globalLimiter))
		router.GET("/api/products", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, hit(router, http.MethodPost, "/auth/login", addr).Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, hit(router, http.MethodPost, "/auth/login", addr).Code)

		// The general API keeps serving the same host.
		assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/api/products", addr).Code)
	})
}
