package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sololev-backend/internal/http/response"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			response.RespondMessage(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.reject(c, err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) reject(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionExpired):
		response.RespondMessage(c, http.StatusUnauthorized, "Session expired")
	case errors.Is(err, services.ErrUnknownUser):
		response.RespondMessage(c, http.StatusUnauthorized, "User not found")
	case errors.Is(err, services.ErrInvalidCredential):
		response.RespondMessage(c, http.StatusUnauthorized, "Invalid token")
	default:
		am.log.Error("Token check failed", "error", err)
		response.RespondError(c, http.StatusServiceUnavailable, "store_unavailable", errors.New("authentication temporarily unavailable"))
	}
	c.Abort()
}

// ExtractToken reads a bearer token from the Authorization header, falling
// back to the token query parameter used by EventSource clients.
func ExtractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}
