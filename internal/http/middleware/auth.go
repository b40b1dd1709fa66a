package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/oceanml-backend/internal/http/response"
	"github.com/yungbote/oceanml-backend/internal/platform/ctxutil"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
	"github.com/yungbote/oceanml-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth accepts session tokens from the Authorization header only.
// Handoff tokens are rejected so a leaked deep link cannot reach the rest of
// the API.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd, ok := am.authenticate(c, extractBearerToken(c))
		if !ok {
			return
		}
		if rd.HasAudience(services.DesktopAudience) {
			response.RespondError(c, http.StatusForbidden, "handoff_token_not_allowed", errHandoffToken)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireHandoffAuth guards the lease claim opened from a desktop deep link.
// It also reads the token query parameter and accepts handoff tokens.
func (am *AuthMiddleware) RequireHandoffAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			tokenString = strings.TrimSpace(c.Query("token"))
		}
		if _, ok := am.authenticate(c, tokenString); !ok {
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) authenticate(c *gin.Context, tokenString string) (*ctxutil.RequestData, bool) {
	if tokenString == "" {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingToken)
		c.Abort()
		return nil, false
	}
	ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
	if err != nil {
		am.log.Debug("token rejected", "path", c.FullPath(), "error", err)
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		c.Abort()
		return nil, false
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || strings.TrimSpace(rd.UserID) == "" {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		c.Abort()
		return nil, false
	}
	c.Request = c.Request.WithContext(ctx)
	return rd, true
}

func extractBearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
