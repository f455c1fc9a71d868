package middleware

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "filebox/backend/common/errors"
)

func TestErrorHandler(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/coded", func(c *gin.Context) {
		_ = c.Error(ferrors.Validation(ferrors.ErrSignupValidation, "Failed signup validation",
			[]ferrors.FieldViolation{{Field: "email", Rule: "email", Message: "Please enter a valid email"}}))
	})
	router.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("dial tcp: connection refused"))
	})
	router.GET("/written", func(c *gin.Context) {
		c.String(http.StatusTeapot, "short and stout")
		_ = c.Error(errors.New("ignored"))
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest("GET", "/coded", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	body := decodeError(t, resp)
	assert.Equal(t, ferrors.ErrSignupValidation, body.ErrorCode)
	assert.Equal(t, "Failed signup validation", body.Message)
	assert.NotNil(t, body.Data)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest("GET", "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	body = decodeError(t, resp)
	assert.Equal(t, ferrors.ErrInternalServer, body.ErrorCode)
	assert.NotContains(t, resp.Body.String(), "connection refused")

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest("GET", "/written", nil))
	assert.Equal(t, http.StatusTeapot, resp.Code)
	assert.Equal(t, "short and stout", resp.Body.String())
}

func TestCriticalRateLimit(t *testing.T) {
	router := gin.New()
	router.POST("/login", CriticalRateLimit(2), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNoContent, resp.Code, "limits are per client")
}

func TestIPRateLimiter_SweepsIdleClients(t *testing.T) {
	l := &ipRateLimiter{clients: make(map[string]*clientLimiter), limit: 1, burst: 1}
	start := time.Now()
	assert.True(t, l.allow("a", start))
	assert.True(t, l.allow("b", start.Add(limiterIdleTTL+2*time.Minute)))
	assert.NotContains(t, l.clients, "a")
}

func TestGzipEncodeMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(GzipEncodeMiddleware("/download"))
	payload := strings.Repeat("filebox ", 100)
	router.GET("/files", func(c *gin.Context) { c.String(http.StatusOK, payload) })
	router.GET("/download/1", func(c *gin.Context) { c.String(http.StatusOK, payload) })

	req := httptest.NewRequest("GET", "/files", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, "gzip", resp.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	req = httptest.NewRequest("GET", "/download/1", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Empty(t, resp.Header().Get("Content-Encoding"))
	assert.Equal(t, payload, resp.Body.String())
}

func TestGzipDecodeMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(GzipDecodeMiddleware())
	router.POST("/echo", func(c *gin.Context) {
		data, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(data))
	})

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"email":"a@b.com"}`))
	require.NoError(t, zw.Close())

	req := httptest.NewRequest("POST", "/echo", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, `{"email":"a@b.com"}`, resp.Body.String())

	req = httptest.NewRequest("POST", "/echo", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRequestTimeout(t *testing.T) {
	router := gin.New()
	router.GET("/slow", RequestTimeout(time.Millisecond), func(c *gin.Context) {
		<-c.Request.Context().Done()
		c.String(http.StatusOK, c.Request.Context().Err().Error())
	})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest("GET", "/slow", nil))
	assert.Equal(t, "context deadline exceeded", resp.Body.String())
}
