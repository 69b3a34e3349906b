package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pcmm-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pcmm-backend/internal/http/middleware"
	"github.com/yungbote/pcmm-backend/internal/observability"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	IdentityMiddleware *httpMW.IdentityMiddleware

	HealthHandler *httpH.HealthHandler
	ModelHandler  *httpH.ModelHandler
	TagHandler    *httpH.TagHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTrace())
	r.Use(httpMW.CORS(cfg.CORSOrigins...))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	if cfg.IdentityMiddleware != nil {
		r.Use(cfg.IdentityMiddleware.Attach())
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Models (read-only)
		if cfg.ModelHandler != nil {
			api.GET("/models/:id/elements", cfg.ModelHandler.ListElements)
			api.GET("/models/:id/progress", cfg.ModelHandler.GetProgress)
			api.GET("/models/:id/aggregation", cfg.ModelHandler.GetAggregation)
		}

		// Tags (read)
		if cfg.TagHandler != nil {
			api.GET("/tags", cfg.TagHandler.ListTags)
			api.GET("/tags/:id", cfg.TagHandler.GetTag)
			api.GET("/tags/:id/runs", cfg.TagHandler.ListRuns)
			api.GET("/report/tag", cfg.TagHandler.GetSelectedTag)
		}
	}

	write := api.Group("/")
	{
		if cfg.IdentityMiddleware != nil {
			write.Use(cfg.IdentityMiddleware.RequireUser())
		}

		// Tags (write)
		if cfg.TagHandler != nil {
			write.POST("/tags", cfg.TagHandler.CreateTag)
			write.PATCH("/tags/:id", cfg.TagHandler.UpdateTag)
			write.DELETE("/tags/:id", cfg.TagHandler.DeleteTag)
			write.POST("/tags/repair", cfg.TagHandler.Repair)
			write.PUT("/report/tag", cfg.TagHandler.SelectTag)
		}
	}

	return r
}
