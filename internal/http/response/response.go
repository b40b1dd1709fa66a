package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/oceanml-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes e and aborts the chain.
func RespondAPIError(c *gin.Context, e *apierr.Error) {
	if e == nil {
		RespondError(c, http.StatusInternalServerError, "internal_error", nil)
		c.Abort()
		return
	}
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	RespondError(c, status, e.Code, e.Err)
	c.Abort()
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
