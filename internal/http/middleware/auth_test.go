package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sololev-backend/internal/platform/ctxutil"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/services"
)

type stubAuth struct {
	services.AuthService
	err    error
	userID uuid.UUID
	seen   string
}

func (s *stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	s.seen = token
	if s.err != nil {
		return ctx, s.err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: token, UserID: s.userID}), nil
}

func runAuth(t *testing.T, auth *stubAuth, setup func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mw := NewAuthMiddleware(logger.NewNop(), auth)
	r.GET("/api/users/me", mw.RequireAuth(), func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": rd.UserID})
	})
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthMessages(t *testing.T) {
	bearer := func(r *http.Request) { r.Header.Set("Authorization", "Bearer tok") }
	cases := []struct {
		name   string
		err    error
		setup  func(*http.Request)
		status int
		body   string
	}{
		{"missing", nil, nil, http.StatusUnauthorized, `{"error":"Authentication required"}`},
		{"expired", services.ErrSessionExpired, bearer, http.StatusUnauthorized, `{"error":"Session expired"}`},
		{"unknown user", services.ErrUnknownUser, bearer, http.StatusUnauthorized, `{"error":"User not found"}`},
		{"bad signature", services.ErrInvalidCredential, bearer, http.StatusUnauthorized, `{"error":"Invalid token"}`},
		{"store down", errors.Join(services.ErrStoreUnavailable, errors.New("db")), bearer, http.StatusServiceUnavailable, `{"error":{"message":"authentication temporarily unavailable","code":"store_unavailable"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := runAuth(t, &stubAuth{err: tc.err}, tc.setup)
			if rec.Code != tc.status {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.status)
			}
			if rec.Body.String() != tc.body {
				t.Fatalf("body: got=%s want=%s", rec.Body.String(), tc.body)
			}
		})
	}
}

func TestRequireAuthAttachesRequestData(t *testing.T) {
	id := uuid.New()
	auth := &stubAuth{userID: id}
	rec := runAuth(t, auth, func(r *http.Request) { r.Header.Set("Authorization", "bearer  abc ") })
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if auth.seen != "abc" {
		t.Fatalf("token passed to service: %q", auth.seen)
	}

	rec = runAuth(t, auth, func(r *http.Request) { r.URL.RawQuery = "token=from-query" })
	if rec.Code != http.StatusOK || auth.seen != "from-query" {
		t.Fatalf("query token not accepted: status=%d seen=%q", rec.Code, auth.seen)
	}
}
