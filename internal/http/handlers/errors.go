package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/sololev-backend/internal/http/response"
	"github.com/yungbote/sololev-backend/internal/platform/apierr"
	"github.com/yungbote/sololev-backend/internal/platform/ctxutil"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/services"
)

// serviceError maps a service sentinel onto an HTTP status and code.
func serviceError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, services.ErrIncompleteTasks):
		return apierr.New(http.StatusBadRequest, "incomplete_tasks", err)
	case errors.Is(err, services.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrInvalidArgument):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, services.ErrInvalidCredential):
		return apierr.New(http.StatusUnauthorized, "invalid_credential", err)
	case errors.Is(err, services.ErrProgressConflict), errors.Is(err, services.ErrConflict):
		return apierr.New(http.StatusConflict, "conflict", err)
	case errors.Is(err, services.ErrStoreUnavailable):
		return apierr.New(http.StatusServiceUnavailable, "store_unavailable", err)
	}
	return apierr.From(err)
}

// respondServiceError writes the error envelope. Server-side failures are
// logged with the full chain and answered with a generic message.
func respondServiceError(c *gin.Context, log *logger.Logger, err error) {
	_ = c.Error(err)
	ae := serviceError(err)
	if ae.Status >= http.StatusInternalServerError {
		log.Error("Request failed", "path", c.FullPath(), "status", ae.Status, "error", err)
		response.RespondError(c, ae.Status, ae.Code, errors.New(http.StatusText(ae.Status)))
		return
	}
	response.RespondError(c, ae.Status, ae.Code, ae)
}

func respondBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
}

// requestUserID is the caller attached by RequireAuth.
func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func respondUnauthenticated(c *gin.Context) {
	response.RespondMessage(c, http.StatusUnauthorized, "Authentication required")
}
