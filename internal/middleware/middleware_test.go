package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]domain.Principal

func (s stubVerifier) Verify(token string) (domain.Principal, error) {
	p, ok := s[token]
	if !ok {
		return domain.Principal{}, errors.New("bad token")
	}
	return p, nil
}

var verifier = stubVerifier{
	"admin-token":  {Subject: "admin", Email: "admin@hasake.vn", Role: domain.RoleAdmin},
	"editor-token": {Subject: "ed", Email: "ed@hasake.vn", Role: "editor"},
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": Principal(c).Email})
	}
	r.GET("/x", handler)
	r.POST("/x", handler)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuth(t *testing.T) {
	r := newRouter(AdminAuth(verifier))

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-token") }, http.StatusOK},
		{"lowercase scheme", func(r *http.Request) { r.Header.Set("Authorization", "bearer admin-token") }, http.StatusOK},
		{"cookie admin", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessCookie, Value: "admin-token"}) }, http.StatusOK},
		{"wrong role", func(r *http.Request) { r.Header.Set("Authorization", "Bearer editor-token") }, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			tc.setup(req)
			rec := serve(r, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "admin@hasake.vn")
			} else {
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}

func TestCSRF(t *testing.T) {
	r := newRouter(CSRF(true))

	withSession := func(method string) *http.Request {
		req := httptest.NewRequest(method, "/x", nil)
		req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "admin-token"})
		return req
	}

	// safe methods pass
	assert.Equal(t, http.StatusOK, serve(r, withSession(http.MethodGet)).Code)

	// cookie session without the pair is rejected
	rec := serve(r, withSession(http.MethodPost))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSRF_MISMATCH")

	// mismatched pair
	req := withSession(http.MethodPost)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "a"})
	req.Header.Set(CSRFHeader, "b")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	// matching pair
	req = withSession(http.MethodPost)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "tok"})
	req.Header.Set(CSRFHeader, "tok")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	// bearer-only request carries no ambient credentials
	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestCSRFDisabled(t *testing.T) {
	r := newRouter(CSRF(false))
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "admin-token"})
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestCORSAllowList(t *testing.T) {
	r := newRouter(CORS([]string{"https://hasake.vn"}))
	r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://hasake.vn")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(r, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://hasake.vn", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(r, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter("contact", 2, time.Minute)
	now := time.Now()

	assert.True(t, l.allow("1.1.1.1", now))
	assert.True(t, l.allow("1.1.1.1", now))
	assert.False(t, l.allow("1.1.1.1", now))
	assert.True(t, l.allow("2.2.2.2", now), "buckets are per client")
	assert.True(t, l.allow("1.1.1.1", now.Add(31*time.Second)), "refills one token per window/burst")
}

func TestRateLimiterMiddleware(t *testing.T) {
	r := newRouter(NewRateLimiter("login", 1, time.Minute).Middleware())

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	r := newRouter(RequestID(), SecurityHeaders(true))
	rec := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec = serve(r, req)
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), Metrics(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
