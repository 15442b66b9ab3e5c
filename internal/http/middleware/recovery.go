package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/sololev-backend/internal/http/response"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

// Recovery turns a handler panic into a logged 500.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
		response.RespondError(c, http.StatusInternalServerError, "internal", nil)
		c.Abort()
	})
}
