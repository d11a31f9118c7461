package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Secure(), rl.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	r := newRouter(NewRateLimiter(2, time.Hour))

	assert.Equal(t, http.StatusOK, hit(r).Code)
	assert.Equal(t, http.StatusOK, hit(r).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r).Code)
}

func TestRateLimiterUpdateRaisesBurst(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	r := newRouter(rl)

	assert.Equal(t, http.StatusOK, hit(r).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r).Code)

	rl.Update(100, time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(r).Code)
}

func TestSecureHeaders(t *testing.T) {
	w := hit(newRouter(NewRateLimiter(10, time.Minute)))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCleanupDropsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute)
	rl.allow("1.1.1.1")
	rl.Cleanup(time.Now().Add(time.Hour))
	assert.Empty(t, rl.visitors)
}
