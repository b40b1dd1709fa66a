package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/oceanml-backend/internal/http/response"
	"github.com/yungbote/oceanml-backend/internal/platform/apierr"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/services"
)

// toAPIError maps a service error onto an HTTP status and code.
func toAPIError(err error) *apierr.Error {
	if e, ok := apierr.As(err); ok {
		return e
	}
	switch {
	case errors.Is(err, services.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrInvalidFormat):
		return apierr.New(http.StatusBadRequest, "invalid_format", err)
	case errors.Is(err, services.ErrTooLarge):
		return apierr.New(http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, services.ErrNotLeaseHolder):
		return apierr.New(http.StatusConflict, "not_lease_holder", err)
	case errors.Is(err, services.ErrConflict):
		return apierr.New(http.StatusConflict, "conflict", err)
	case errors.Is(err, services.ErrIdentityRequired):
		return apierr.New(http.StatusUnauthorized, "identity_required", err)
	case errors.Is(err, services.ErrUnauthorized):
		return apierr.New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, context.Canceled):
		return apierr.New(499, "client_closed_request", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, "timeout", err)
	}
	var se *services.StoreError
	if errors.As(err, &se) {
		return apierr.New(http.StatusInternalServerError, "store_error", errors.New(se.Op+" failed"))
	}
	return apierr.New(http.StatusInternalServerError, "internal_error", errors.New("internal error"))
}

// respondServiceError logs server-side failures with their cause and writes
// the mapped envelope. Store details are not echoed to clients.
func respondServiceError(c *gin.Context, log *logger.Logger, op string, err error) {
	e := toAPIError(err)
	if e.Status >= http.StatusInternalServerError && log != nil {
		log.Error(op+" failed", "error", err, "path", c.FullPath())
	}
	response.RespondAPIError(c, e)
}
