package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func newAuthRouter() *gin.Engine {
	auth := NewAuthenticator(testSecret)
	r := gin.New()
	r.GET("/me", auth.JWTAuth(), func(c *gin.Context) {
		uid, err := GetUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": uid, "token": GetToken(c), "admin": IsAdmin(c)})
	})
	r.GET("/admin", auth.JWTAuth(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	r := newAuthRouter()
	tok := signToken(t, jwt.MapClaims{"id": float64(12), "exp": time.Now().Add(time.Hour).Unix()})

	w := doRequest(r, http.MethodGet, "/me", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"12"`)
	assert.Contains(t, w.Body.String(), `"admin":false`)
	assert.Contains(t, w.Body.String(), tok)
}

func TestJWTAuthRejects(t *testing.T) {
	r := newAuthRouter()

	expired := signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("other"))
	require.NoError(t, err)
	noUser := signToken(t, jwt.MapClaims{"role": "admin"})

	for name, tok := range map[string]string{"missing": "", "expired": expired, "wrong secret": other, "no user": noUser} {
		t.Run(name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/me", tok)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"kind":"unauthorized"`)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token format")
}

func TestRequireAdmin(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   int
	}{
		{"is_admin bool", jwt.MapClaims{"sub": "a", "is_admin": true}, http.StatusNoContent},
		{"is_admin string", jwt.MapClaims{"sub": "a", "is_admin": "true"}, http.StatusNoContent},
		{"role admin", jwt.MapClaims{"user_id": "a", "role": "ADMIN"}, http.StatusNoContent},
		{"buyer", jwt.MapClaims{"sub": "b", "role": "user"}, http.StatusForbidden},
		{"is_admin false", jwt.MapClaims{"sub": "b", "is_admin": false}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/admin", signToken(t, tt.claims))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRejectsNonHMACToken(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuthenticator(testSecret).ParseToken(tok)
	assert.Error(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	r := gin.New()
	r.Use(RateLimitMiddleware(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, doRequest(r, http.MethodGet, "/", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterSweepsIdleEntries(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 1, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.GetLimiter("10.0.0.1")
	rl.GetLimiter("10.0.0.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(2 * time.Minute)
	rl.GetLimiter("10.0.0.3")
	assert.Equal(t, 1, rl.size())
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, http.MethodGet, "/", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type recordedMetric struct {
	name string
	dims map[string]string
}

type fakeMetrics struct {
	mu      sync.Mutex
	enabled bool
	got     []recordedMetric
	done    chan struct{}
}

func (f *fakeMetrics) IsEnabled() bool { return f.enabled }

func (f *fakeMetrics) RecordCount(_ context.Context, name string, dims map[string]string) error {
	f.mu.Lock()
	f.got = append(f.got, recordedMetric{name, dims})
	f.mu.Unlock()
	if name == "HTTP4xxErrors" || name == "HTTP5xxErrors" {
		close(f.done)
	}
	return nil
}

func (f *fakeMetrics) RecordLatency(_ context.Context, name string, _ time.Duration, dims map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, recordedMetric{name, dims})
	return nil
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	m := &fakeMetrics{enabled: true, done: make(chan struct{})}
	r := gin.New()
	r.Use(MetricsMiddleware(m, "bms-storefront"))
	r.GET("/bff/orders/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	doRequest(r, http.MethodGet, "/bff/orders/42", "")

	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("metrics not recorded")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.got, 3)
	assert.Equal(t, "HTTPRequests", m.got[0].name)
	assert.Equal(t, "/bff/orders/:id", m.got[0].dims["Path"])
	assert.Equal(t, "4xx", m.got[0].dims["Status"])
}

func TestStatusCodeToRange(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToRange(201))
	assert.Equal(t, "3xx", statusCodeToRange(304))
	assert.Equal(t, "4xx", statusCodeToRange(429))
	assert.Equal(t, "5xx", statusCodeToRange(502))
	assert.Equal(t, "unknown", statusCodeToRange(101))
}
