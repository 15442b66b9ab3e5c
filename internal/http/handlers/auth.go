package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sololev-backend/internal/http/middleware"
	"github.com/yungbote/sololev-backend/internal/http/response"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/services"
)

const authFailurePath = "/api/auth/failure"

type AuthHandler struct {
	log            *logger.Logger
	authService    services.AuthService
	appRedirectURL string
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, appRedirectURL string) *AuthHandler {
	if strings.TrimSpace(appRedirectURL) == "" {
		appRedirectURL = "sololev://auth/callback"
	}
	return &AuthHandler{
		log:            log.With("handler", "AuthHandler"),
		authService:    authService,
		appRedirectURL: appRedirectURL,
	}
}

// GET /api/auth/google
func (h *AuthHandler) GoogleStart(c *gin.Context) {
	consentURL, err := h.authService.BeginGoogleAuth(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Redirect(http.StatusFound, consentURL)
}

// GET /api/auth/callback/google
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		h.log.Warn("Google consent denied", "reason", reason)
		c.Redirect(http.StatusFound, authFailurePath)
		return
	}
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		c.Redirect(http.StatusFound, authFailurePath)
		return
	}

	var page bytes.Buffer
	issued, err := h.authService.CompleteGoogleAuth(c.Request.Context(), state, code, c.Request.UserAgent())
	if err != nil {
		_ = c.Error(err)
		h.log.Error("Google callback failed", "error", err)
		if rerr := renderFailurePage(&page, h.appRedirectURL); rerr != nil {
			h.log.Error("Render failure page", "error", rerr)
			response.RespondMessage(c, http.StatusUnauthorized, "Google authentication failed")
			return
		}
	} else {
		h.log.Info("User authenticated", "user_id", issued.User.ID)
		if rerr := renderSuccessPage(&page, h.appRedirectURL, issued.Token); rerr != nil {
			respondServiceError(c, h.log, rerr)
			return
		}
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

// POST /api/auth/google/token
// body: { "id_token": "..." }
func (h *AuthHandler) GoogleIDToken(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	issued, err := h.authService.LoginWithGoogleIDToken(c.Request.Context(), req.IDToken, c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{
		"token":      issued.Token,
		"expires_in": int64(h.authService.SessionTTL().Seconds()),
		"user":       issued.User,
	})
}

// GET /api/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	token := middleware.ExtractToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "No token provided"})
		return
	}
	user, err := h.authService.VerifyToken(c.Request.Context(), token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
	case errors.Is(err, services.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "Session expired or invalid"})
	case errors.Is(err, services.ErrUnknownUser):
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "User not found"})
	case errors.Is(err, services.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "Invalid token"})
	default:
		respondServiceError(c, h.log, err)
	}
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.ExtractToken(c); token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			h.log.Warn("Logout session delete failed (ignored)", "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// GET /api/auth/failure
func (h *AuthHandler) Failure(c *gin.Context) {
	response.RespondMessage(c, http.StatusUnauthorized, "Google authentication failed")
}
