package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"inboker-service/internal/domain/profile"
	"inboker-service/internal/pkg/metrics"
	"inboker-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var ownerID = uuid.MustParse("0b6f5c8e-3d2a-4f7b-9c1e-5a8d2e4f6b10")

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, token string) (*session.Principal, error) {
	switch token {
	case "owner-token":
		return &session.Principal{UserID: ownerID, Role: profile.RoleBusinessOwner}, nil
	case "customer-token":
		return &session.Principal{UserID: uuid.New(), Role: profile.RoleCustomer}, nil
	}
	return nil, errors.New("bad token")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthAndRequireRole(t *testing.T) {
	m := NewAuthMiddleware(stubAuth{}, "sb-access-token")
	r := gin.New()
	r.GET("/owner", append(m.OwnerOnly(), func(c *gin.Context) {
		c.String(http.StatusOK, MustGetPrincipal(c).UserID.String())
	})...)

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", "", http.StatusUnauthorized},
		{"wrong role", "Bearer customer-token", "", http.StatusForbidden},
		{"bearer owner", "Bearer owner-token", "", http.StatusOK},
		{"cookie owner", "", "owner-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/owner", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "sb-access-token", Value: tt.cookie})
			}
			rec := serve(r, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, ownerID.String(), rec.Body.String())
			}
		})
	}
}

func TestOptionalAuthNeverAborts(t *testing.T) {
	m := NewAuthMiddleware(stubAuth{}, "")
	r := gin.New()
	r.GET("/public", m.OptionalAuth(), func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.String(http.StatusOK, "signed-in")
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, "anonymous", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer owner-token")
	assert.Equal(t, "signed-in", serve(r, req).Body.String())
}

type countingLimiter struct {
	hits map[string]int64
	err  error
}

func (l *countingLimiter) Allow(_ context.Context, scope, key string, max int64, _ time.Duration) (bool, int64, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	l.hits[scope+key]++
	remaining := max - l.hits[scope+key]
	if remaining < 0 {
		remaining = 0
	}
	return l.hits[scope+key] <= max, remaining, nil
}

func TestRateLimitPerClient(t *testing.T) {
	limiter := &countingLimiter{hits: map[string]int64{}}
	r := gin.New()
	r.POST("/book", RateLimit(limiter, "booking", 2, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/book", nil)
		req.RemoteAddr = ip + ":4000"
		return serve(r, req)
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1").Code)
	rec := send("10.0.0.1")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, send("10.0.0.2").Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	r := gin.New()
	r.POST("/book", RateLimit(limiter, "booking", 1, time.Minute, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, serve(r, httptest.NewRequest(http.MethodPost, "/book", nil)).Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestRecoveryMiddlewareClientGone(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()))
	r.GET("/gone", func(c *gin.Context) { panic(syscall.EPIPE) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/gone", nil))
	assert.Empty(t, rec.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.inboker.com/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.inboker.com")
	rec := serve(r, req)
	assert.Equal(t, "https://app.inboker.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = serve(r, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.inboker.com")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
}

func TestLoggingMiddlewareRecordsMetrics(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(LoggingMiddleware(zap.NewNop(), m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	out := httptest.NewRecorder()
	m.Handler().ServeHTTP(out, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, out.Body.String(), `route="/items/:id"`)
}
