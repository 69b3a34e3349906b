package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/http"
	httpH "github.com/yungbote/pcmm-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pcmm-backend/internal/http/middleware"
	"github.com/yungbote/pcmm-backend/internal/observability"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type Middleware struct {
	Identity *httpMW.IdentityMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Model  *httpH.ModelHandler
	Tag    *httpH.TagHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Model:  httpH.NewModelHandler(services.PCMM, services.Progress, services.Aggregation),
		Tag:    httpH.NewTagHandler(services.Tag, services.ReportConfig, cfg.Tag.RepairOlderThan),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Identity: httpMW.NewIdentityMiddleware(log, cfg.HTTP.DefaultUser, cfg.HTTP.DefaultRole),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:                log,
		ServiceName:        serviceName,
		CORSOrigins:        cfg.HTTP.CORSOrigins,
		Metrics:            metrics,
		IdentityMiddleware: middleware.Identity,
		HealthHandler:      handlers.Health,
		ModelHandler:       handlers.Model,
		TagHandler:         handlers.Tag,
	})
}
