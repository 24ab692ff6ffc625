package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/ctxutil"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/services"
)

type stubAuth struct {
	services.AuthService
	tokens map[string]*ctxutil.RequestData
}

func (s *stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, ok := s.tokens[token]
	if !ok {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (s *stubAuth) AccessTTL() time.Duration { return time.Minute }

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), &stubAuth{tokens: map[string]*ctxutil.RequestData{
		"user-token":  {UserID: uuid.New(), Role: "user", TokenString: "user-token"},
		"admin-token": {UserID: uuid.New(), Role: "admin", TokenString: "admin-token"},
	}})
	who := func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, rd.Role)
	}
	r := gin.New()
	r.GET("/private", am.RequireAuth(), who)
	r.GET("/admin", am.RequireAuth(), am.RequireRole("admin"), who)
	r.GET("/public", am.OptionalAuth(), who)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter()
	cases := []struct {
		path   string
		header string
		status int
		body   string
	}{
		{"/private", "", http.StatusUnauthorized, ""},
		{"/private", "Bearer nope", http.StatusUnauthorized, ""},
		{"/private", "Token user-token", http.StatusUnauthorized, ""},
		{"/private", "Bearer user-token", http.StatusOK, "user"},
		{"/private", "bearer user-token", http.StatusOK, "user"},
		{"/admin", "Bearer user-token", http.StatusForbidden, ""},
		{"/admin", "Bearer admin-token", http.StatusOK, "admin"},
		{"/admin", "", http.StatusUnauthorized, ""},
		{"/public", "", http.StatusOK, "anonymous"},
		{"/public", "Bearer nope", http.StatusOK, "anonymous"},
		{"/public", "Bearer user-token", http.StatusOK, "user"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s %q: status got=%d want=%d", tc.path, tc.header, rec.Code, tc.status)
		}
		if tc.body != "" && rec.Body.String() != tc.body {
			t.Fatalf("%s %q: body got=%q want=%q", tc.path, tc.header, rec.Body.String(), tc.body)
		}
	}
}

func TestTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		td := ctxutil.GetTraceData(c.Request.Context())
		if td == nil || td.RequestID != "req-1" {
			t.Errorf("trace data not attached: %+v", td)
		}
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "req-1" {
		t.Fatalf("request id header: got=%q", got)
	}
	if rec.Header().Get("X-Trace-Id") == "" {
		t.Fatalf("missing trace id header")
	}
}

func TestTraceContextRejectsMalformedRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, bad := range []string{"has space", string(make([]byte, maxInboundIDLen+1))} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-Id", bad)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		got := rec.Header().Get("X-Request-Id")
		if got == bad || got == "" {
			t.Fatalf("expected a generated request id, got=%q", got)
		}
	}
}
