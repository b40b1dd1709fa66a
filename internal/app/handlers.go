package app

import (
	httpH "github.com/yungbote/oceanml-backend/internal/http/handlers"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Video      *httpH.VideoHandler
	Annotation *httpH.AnnotationHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(cfg.Version),
		Video:      httpH.NewVideoHandler(log, services.Videos, services.Activity, services.Handoff),
		Annotation: httpH.NewAnnotationHandler(log, services.Lock, services.Annotations),
	}
}
