package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/oceanml-backend/internal/http/handlers"
	httpMW "github.com/yungbote/oceanml-backend/internal/http/middleware"
	"github.com/yungbote/oceanml-backend/internal/observability"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// MaxMultipartMemory bounds the in-memory part of multipart uploads.
	MaxMultipartMemory int64
	Metrics            *observability.Metrics

	AuthMiddleware    *httpMW.AuthMiddleware
	HealthHandler     *httpH.HealthHandler
	VideoHandler      *httpH.VideoHandler
	AnnotationHandler *httpH.AnnotationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = cfg.MaxMultipartMemory
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/health", cfg.HealthHandler.Health)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api")
	handoff := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
		handoff.Use(cfg.AuthMiddleware.RequireHandoffAuth())
	}

	// Videos
	if cfg.VideoHandler != nil {
		protected.GET("/videos", cfg.VideoHandler.ListVideos)
		protected.POST("/videos", cfg.VideoHandler.UploadVideo)
		protected.GET("/videos/:id", cfg.VideoHandler.GetVideo)
		protected.PUT("/videos/:id", cfg.VideoHandler.UpdateVideo)
		protected.DELETE("/videos/:id", cfg.VideoHandler.DeleteVideo)
		protected.GET("/videos/:id/activity", cfg.VideoHandler.ListActivity)
		protected.GET("/videos/:id/handoff", cfg.VideoHandler.GetHandoffLink)
	}

	// Annotations
	if cfg.AnnotationHandler != nil {
		handoff.POST("/annotations/annotate/:video_id", cfg.AnnotationHandler.StartAnnotation)
		protected.POST("/annotations/release/:video_id", cfg.AnnotationHandler.ReleaseAnnotation)
		protected.POST("/annotations/complete", cfg.AnnotationHandler.CompleteAnnotation)
		protected.GET("/annotations/:video_id", cfg.AnnotationHandler.GetAnnotation)
		protected.GET("/annotations/:video_id/data", cfg.AnnotationHandler.GetAnnotationData)
		protected.DELETE("/annotations/:video_id", cfg.AnnotationHandler.DeleteAnnotation)
	}

	return r
}
