package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedRouter(level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(level)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	return router, recorded
}

func requestEntry(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func fieldByKey(entry observer.LoggedEntry, key string) (zapcore.Field, bool) {
	for _, f := range entry.Context {
		if f.Key == key {
			return f, true
		}
	}
	return zapcore.Field{}, false
}

func TestGinMiddleware(t *testing.T) {
	router, recorded := observedRouter(zapcore.InfoLevel)
	router.GET("/products", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("User-Agent", "stocksense-cli/1.0")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	entry := requestEntry(t, recorded)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	for _, key := range []string{"method", "path", "status", "latency", "client_ip", "user_agent", "body_size"} {
		_, ok := fieldByKey(entry, key)
		assert.True(t, ok, "missing field %s", key)
	}

	method, _ := fieldByKey(entry, "method")
	assert.Equal(t, http.MethodGet, method.String)
	path, _ := fieldByKey(entry, "path")
	assert.Equal(t, "/products", path.String)
}

func TestGinMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/alerts", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/alerts", nil))

	entry := requestEntry(t, recorded)
	requestID, ok := fieldByKey(entry, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", requestID.String)
}

func TestGinMiddleware_StatusLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   zapcore.Level
	}{
		{"success logs info", http.StatusOK, zapcore.InfoLevel},
		{"client error logs warn", http.StatusNotFound, zapcore.WarnLevel},
		{"server error logs error", http.StatusBadGateway, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, recorded := observedRouter(zapcore.DebugLevel)
			router.GET("/assess", func(c *gin.Context) {
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/assess", nil))

			assert.Equal(t, tt.want, requestEntry(t, recorded).Level)
		})
	}
}

func TestGinMiddleware_Query(t *testing.T) {
	router, recorded := observedRouter(zapcore.InfoLevel)
	router.GET("/products", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products?category=Electronics&page=2", nil))

	query, ok := fieldByKey(requestEntry(t, recorded), "query")
	require.True(t, ok)
	assert.Contains(t, query.String, "category=Electronics")
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) {
		panic("scoring failed")
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := recorded.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	errField, ok := fieldByKey(entries[0], "error")
	require.True(t, ok)
	assert.Equal(t, "scoring failed", errField.String)
}

func TestGetGinLogger(t *testing.T) {
	t.Run("returns request-scoped logger", func(t *testing.T) {
		router, _ := observedRouter(zapcore.InfoLevel)

		var got *zap.Logger
		router.GET("/products", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

		assert.NotNil(t, got)
	})

	t.Run("falls back to nop when middleware absent", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()

		var got *zap.Logger
		router.GET("/products", func(c *gin.Context) {
			got = GetGinLogger(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

		require.NotNil(t, got)
		assert.NotPanics(t, func() { got.Info("noop") })
	})
}
