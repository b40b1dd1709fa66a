package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/oceanml-backend/internal/http/response"
	"github.com/yungbote/oceanml-backend/internal/platform/ctxutil"
)

// requester returns the authenticated subject, writing a 401 when absent.
func requester(c *gin.Context) (string, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || strings.TrimSpace(rd.UserID) == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return "", false
	}
	return rd.UserID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, fmt.Errorf("%s must be a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}
