package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/oceanml-backend/internal/http"
	"github.com/yungbote/oceanml-backend/internal/observability"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

const serviceName = "oceanml-api"

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:                log,
		ServiceName:        serviceName,
		CORSOrigins:        cfg.CORSOrigins,
		MaxMultipartMemory: 32 << 20,
		Metrics:            metrics,
		AuthMiddleware:     middleware.Auth,
		HealthHandler:      handlers.Health,
		VideoHandler:       handlers.Video,
		AnnotationHandler:  handlers.Annotation,
	})
}
