package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const APIVersion = "1.0.0"

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "SoloLev API is running"})
}

// GET /
func (h *HealthHandler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to SoloLev API",
		"version": APIVersion,
		"status":  "running",
		"endpoints": gin.H{
			"auth":   "/api/auth",
			"tasks":  "/api/tasks",
			"users":  "/api/users",
			"health": "/health",
		},
	})
}
