package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"khrafet/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newLoggedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.GinZapLogger(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.RequestIDHeader)) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("store unavailable"))
		c.Status(http.StatusInternalServerError)
	})
	return r, logs
}

func TestRequestID_PropagatesIncomingHeader(t *testing.T) {
	r, logs := newLoggedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ok?x=1", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "req-123", w.Body.String())

	entries := logs.FilterMessage("Request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "/ok?x=1", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestRequestID_GeneratedWhenMissing(t *testing.T) {
	r, _ := newLoggedRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestGinZapLogger_Levels(t *testing.T) {
	r, logs := newLoggedRouter(t)

	for _, path := range []string{"/health", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Zero(t, logs.FilterField(zap.String("path", "/health")).Len())
	assert.Equal(t, 1, logs.FilterMessage("Client error").Len())
	errorsLogged := logs.FilterMessage("Request error").All()
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, zap.ErrorLevel, errorsLogged[0].Level)
}
