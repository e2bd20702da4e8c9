package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"realty-listings/internal/apperror"
	"realty-listings/internal/auth"
	"realty-listings/internal/metrics"
	"realty-listings/internal/models"
	"realty-listings/internal/ratelimit"
	"realty-listings/internal/testutil"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	token string
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (*models.UserSession, *models.User, error) {
	if token != f.token {
		return nil, nil, apperror.Auth("Invalid or expired session")
	}
	return &models.UserSession{UserEmail: "admin@example.com"}, &models.User{Email: "admin@example.com", Role: models.RoleAdmin}, nil
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireAdmin(fakeAuth{token: "good"}), func(c *gin.Context) {
		c.String(http.StatusOK, auth.ActorFromContext(c.Request.Context()))
	})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
		wantBody   string
	}{
		{"no token", "", "", 401, ""},
		{"bearer", "Authorization", "Bearer good", 200, "admin@example.com"},
		{"lowercase bearer", "Authorization", "bearer good", 200, "admin@example.com"},
		{"session header", SessionTokenHeader, "good", 200, "admin@example.com"},
		{"bad token", "Authorization", "Bearer bad", 401, ""},
		{"basic scheme", "Authorization", "Basic good", 401, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	rl := ratelimit.NewRateLimiter(2, 0, true)
	r := gin.New()
	r.POST("/contact", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusCreated) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", nil))
		codes = append(codes, w.Code)
		if i == 2 && w.Header().Get("Retry-After") == "" {
			t.Error("missing Retry-After header")
		}
	}
	if codes[0] != 201 || codes[1] != 201 || codes[2] != 429 {
		t.Errorf("codes = %v, want [201 201 429]", codes)
	}
}

func TestRequestLoggerSetsID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("request id not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want propagated abc-123", got)
	}
}

func TestMetricsRecordsRoute(t *testing.T) {
	rec := metrics.NewRecorder(testutil.NewDB(t), 10)
	r := gin.New()
	r.Use(Metrics(rec))
	r.GET("/api/properties/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/api/properties/1", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	if rec.Pending() != 2 {
		t.Errorf("pending = %d, want 2", rec.Pending())
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestForbidden(t *testing.T) {
	r := gin.New()
	r.POST("/api/plot-properties", Forbidden("Use /api/properties"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/plot-properties", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
