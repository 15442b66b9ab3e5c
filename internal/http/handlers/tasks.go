package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	"github.com/yungbote/sololev-backend/internal/http/response"
	"github.com/yungbote/sololev-backend/internal/platform/calendar"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/services"
)

type TaskHandler struct {
	log         *logger.Logger
	taskService services.TaskService
	now         func() time.Time
}

func NewTaskHandler(log *logger.Logger, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{
		log:         log.With("handler", "TaskHandler"),
		taskService: taskService,
		now:         time.Now,
	}
}

// GET /api/tasks?date=YYYY-MM-DD
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	var date *calendar.Date
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		d, err := calendar.Parse(raw)
		if err != nil {
			respondBadRequest(c, fmt.Errorf("invalid date %q", raw))
			return
		}
		date = &d
	}
	tasks, err := h.taskService.List(c.Request.Context(), userID, date)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, tasks)
}

// GET /api/tasks/today
func (h *TaskHandler) Today(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	tasks, err := h.taskService.Today(c.Request.Context(), userID, h.now())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, tasks)
}

// POST /api/tasks
// body: { "title": "...", "date": "YYYY-MM-DD" }
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	var req struct {
		Title string  `json:"title"`
		Date  *string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	task, err := h.taskService.Create(c.Request.Context(), userID, services.CreateTaskInput{
		Title: req.Title,
		Date:  date,
	}, h.now())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondCreated(c, task)
}

// PATCH /api/tasks/:taskId
// body: { "title"?: "...", "completed"?: bool, "date"?: "YYYY-MM-DD" }
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	taskID, ok := h.taskID(c)
	if !ok {
		return
	}
	var req struct {
		Title     *string `json:"title"`
		Completed *bool   `json:"completed"`
		Date      *string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	task, err := h.taskService.Update(c.Request.Context(), userID, taskID, repos.TaskPatch{
		Title:     req.Title,
		Completed: req.Completed,
		Date:      date,
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}
	response.RespondOK(c, task)
}

// DELETE /api/tasks/:taskId
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	taskID, ok := h.taskID(c)
	if !ok {
		return
	}
	if err := h.taskService.Delete(c.Request.Context(), userID, taskID); err != nil {
		h.respondTaskError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// optionalDate treats a missing or blank "date" as not given, so the task
// falls back to today on create and keeps its date on update.
func optionalDate(raw *string) (*calendar.Date, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := calendar.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", *raw)
	}
	return &d, nil
}

// taskID parses the path id. Anything that is not a uuid cannot name one of
// the caller's tasks, so it answers like a missing task.
func (h *TaskHandler) taskID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		response.RespondMessage(c, http.StatusNotFound, "Task not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		response.RespondMessage(c, http.StatusNotFound, "Task not found")
		return
	}
	respondServiceError(c, h.log, err)
}
