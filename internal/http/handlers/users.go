package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sololev-backend/internal/http/response"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/services"
)

type UserHandler struct {
	log             *logger.Logger
	userService     services.UserService
	progressService services.ProgressService
	now             func() time.Time
}

func NewUserHandler(log *logger.Logger, userService services.UserService, progressService services.ProgressService) *UserHandler {
	return &UserHandler{
		log:             log.With("handler", "UserHandler"),
		userService:     userService,
		progressService: progressService,
		now:             time.Now,
	}
}

// GET /api/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	me, err := h.userService.GetMe(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, me)
}

// PATCH /api/users/me
// body: { "name": "..." }
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	u, err := h.userService.UpdateName(c.Request.Context(), req.Name)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, u)
}

// GET /api/users/me/progress
func (h *UserHandler) GetProgress(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	summary, err := h.progressService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{
		"userId":              userID,
		"streak":              summary.Streak,
		"level":               summary.Level,
		"daysToNextLevel":     summary.DaysToNextLevel,
		"longestStreak":       summary.LongestStreak,
		"totalTasksCompleted": summary.TotalTasksCompleted,
	})
}

// POST /api/users/me/complete-day
func (h *UserHandler) CompleteDay(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	result, err := h.progressService.CompleteDay(c.Request.Context(), userID, h.now())
	if err != nil {
		if errors.Is(err, services.ErrIncompleteTasks) {
			_ = c.Error(err)
			response.RespondMessage(c, http.StatusBadRequest, "Not all tasks completed for today")
			return
		}
		respondServiceError(c, h.log, err)
		return
	}
	if result.AlreadyCompleted {
		response.RespondOK(c, gin.H{
			"message": "Already completed today",
			"progress": gin.H{
				"streak":          result.Progress.Streak,
				"level":           result.Progress.Level,
				"daysToNextLevel": result.Progress.DaysToNextLevel,
			},
		})
		return
	}
	response.RespondOK(c, gin.H{"user": result.User, "progress": result.Progress})
}

// GET /api/users/me/history?limit=
func (h *UserHandler) History(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondBadRequest(c, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	history, err := h.progressService.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, history)
}
