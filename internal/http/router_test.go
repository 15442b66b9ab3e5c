package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpH "github.com/yungbote/sololev-backend/internal/http/handlers"
	httpMW "github.com/yungbote/sololev-backend/internal/http/middleware"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

func testRouter(t *testing.T, mediaDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	return NewRouter(RouterConfig{
		Log:            log,
		CORSOrigins:    []string{"https://app.example"},
		MediaDir:       mediaDir,
		HealthHandler:  httpH.NewHealthHandler(),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, nil),
		TaskHandler:    httpH.NewTaskHandler(log, nil),
	})
}

func TestRouterPublicAndProtected(t *testing.T) {
	r := testRouter(t, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","message":"SoloLev API is running"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/today", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())
}

func TestRouterCORSPreflight(t *testing.T) {
	r := testRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouterServesLocalMedia(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "avatars"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "avatars", "a.png"), []byte("png"), 0o644))
	r := testRouter(t, dir)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/avatars/a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())

	r = testRouter(t, "")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/avatars/a.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerRunShutsDownOnCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", RouterConfig{Log: logger.NewNop()})
	closed := make(chan struct{})
	srv.OnShutdown(func() { close(closed) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("shutdown hook not called")
	}
}
