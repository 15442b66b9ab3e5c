package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	"github.com/yungbote/sololev-backend/internal/data/repos/testutil"
	"github.com/yungbote/sololev-backend/internal/platform/calendar"
	"github.com/yungbote/sololev-backend/internal/platform/ctxutil"
	"github.com/yungbote/sololev-backend/internal/services"
)

var noon = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type apiEnv struct {
	db     *gorm.DB
	router *gin.Engine
	userID uuid.UUID
}

// asUser stands in for RequireAuth.
func asUser(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: id, SessionID: uuid.New()})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	userRepo := repos.NewUserRepo(db, log)
	taskRepo := repos.NewTaskRepo(db, log)
	dayRepo := repos.NewDayCompletionRepo(db, log)
	notifier := services.NewNotifier(nil)

	taskService := services.NewTaskService(db, log, taskRepo, notifier, time.UTC)
	userService := services.NewUserService(db, log, userRepo, notifier)
	progressService := services.NewProgressService(db, log, userRepo, taskRepo, dayRepo, notifier, services.ProgressConfig{Location: time.UTC})

	th := NewTaskHandler(log, taskService)
	th.now = func() time.Time { return noon }
	uh := NewUserHandler(log, userService, progressService)
	uh.now = func() time.Time { return noon }

	u := testutil.SeedUser(t, context.Background(), db, "")

	r := gin.New()
	api := r.Group("/api", asUser(u.ID))
	api.GET("/tasks", th.List)
	api.GET("/tasks/today", th.Today)
	api.POST("/tasks", th.Create)
	api.PATCH("/tasks/:taskId", th.Update)
	api.DELETE("/tasks/:taskId", th.Delete)
	api.GET("/users/me", uh.GetMe)
	api.PATCH("/users/me", uh.UpdateMe)
	api.GET("/users/me/progress", uh.GetProgress)
	api.POST("/users/me/complete-day", uh.CompleteDay)
	api.GET("/users/me/history", uh.History)

	return &apiEnv{db: db, router: r, userID: u.ID}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type taskJSON struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Date      string    `json:"date"`
}

func TestTaskRoutes(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/tasks", gin.H{"title": "Run 5k"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[taskJSON](t, rec)
	assert.Equal(t, "Run 5k", created.Title)
	assert.Equal(t, "2024-03-10", created.Date)
	assert.False(t, created.Completed)

	rec = env.do(t, http.MethodPost, "/api/tasks", gin.H{"title": "Read", "date": "2024-03-09"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/tasks/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	today := decode[[]taskJSON](t, rec)
	require.Len(t, today, 1)
	assert.Equal(t, created.ID, today[0].ID)

	rec = env.do(t, http.MethodGet, "/api/tasks?date=2024-03-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]taskJSON](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]taskJSON](t, rec), 2)

	rec = env.do(t, http.MethodGet, "/api/tasks?date=2024-02-30", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/tasks/"+created.ID.String(), gin.H{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[taskJSON](t, rec).Completed)

	rec = env.do(t, http.MethodPatch, "/api/tasks/"+uuid.NewString(), gin.H{"completed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/tasks/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, http.MethodPost, "/api/tasks", gin.H{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"invalid_request"`)
}

func TestTaskBlankDateMeansToday(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/tasks", gin.H{"title": "Plank", "date": ""})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[taskJSON](t, rec)
	assert.Equal(t, "2024-03-10", created.Date)

	rec = env.do(t, http.MethodPatch, "/api/tasks/"+created.ID.String(), gin.H{"date": "", "completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[taskJSON](t, rec)
	assert.Equal(t, "2024-03-10", updated.Date, "blank date keeps the stored one")
	assert.True(t, updated.Completed)

	rec = env.do(t, http.MethodPost, "/api/tasks", gin.H{"title": "Plank", "date": "10/03/2024"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteDayRoute(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	today := calendar.Of(noon, time.UTC)

	rec := env.do(t, http.MethodPost, "/api/users/me/complete-day", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Not all tasks completed for today"}`, rec.Body.String())

	testutil.SeedTask(t, ctx, env.db, env.userID, today, "Push-ups", true)
	yesterday := today.AddDays(-1)
	testutil.SeedProgress(t, ctx, env.db, env.userID, 7, 7, &yesterday)

	rec = env.do(t, http.MethodPost, "/api/users/me/complete-day", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var done struct {
		User struct {
			ID            uuid.UUID `json:"id"`
			CurrentStreak int       `json:"currentStreak"`
		} `json:"user"`
		Progress struct {
			Streak          int `json:"streak"`
			Level           int `json:"level"`
			DaysToNextLevel int `json:"daysToNextLevel"`
			LongestStreak   int `json:"longestStreak"`
		} `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	assert.Equal(t, env.userID, done.User.ID)
	assert.Equal(t, 8, done.User.CurrentStreak)
	assert.Equal(t, 8, done.Progress.Streak)
	assert.Equal(t, 2, done.Progress.Level)
	assert.Equal(t, 7, done.Progress.DaysToNextLevel)
	assert.Equal(t, 8, done.Progress.LongestStreak)

	rec = env.do(t, http.MethodPost, "/api/users/me/complete-day", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Already completed today","progress":{"streak":8,"level":2,"daysToNextLevel":7}}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/users/me/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"`+env.userID.String()+`","streak":8,"level":2,"daysToNextLevel":7,"longestStreak":8,"totalTasksCompleted":1}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/users/me/history?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []struct {
		Date    string `json:"date"`
		Outcome string `json:"outcome"`
		Streak  int    `json:"streak"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "2024-03-10", history[0].Date)
	assert.Equal(t, "extended", history[0].Outcome)
	assert.Equal(t, 8, history[0].Streak)

	rec = env.do(t, http.MethodGet, "/api/users/me/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserMeRoutes(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), env.userID.String())

	rec = env.do(t, http.MethodPatch, "/api/users/me", gin.H{"name": "  Cha   Hae-In "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "Cha Hae-In", me.Name)

	rec = env.do(t, http.MethodPatch, "/api/users/me", gin.H{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWelcomeAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler()
	r := gin.New()
	r.GET("/", h.Welcome)
	r.GET("/health", h.Health)
	r.GET("/healthcheck", h.HealthCheck)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"message":"Welcome to SoloLev API","version":"1.0.0","status":"running",
		"endpoints":{"auth":"/api/auth","tasks":"/api/tasks","users":"/api/users","health":"/health"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","message":"SoloLev API is running"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
