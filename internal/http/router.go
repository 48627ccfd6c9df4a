package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/brandprompt-backend/internal/http/handlers"
	httpMW "github.com/yungbote/brandprompt-backend/internal/http/middleware"
	"github.com/yungbote/brandprompt-backend/internal/observability"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type RouterConfig struct {
	BrandHandler  *httpH.BrandHandler
	HealthHandler *httpH.HealthHandler

	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration
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

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.Use(httpMW.RequestTimeout(cfg.RequestTimeout))
	{
		if cfg.BrandHandler != nil {
			api.POST("/onboard", cfg.BrandHandler.Onboard)
			api.POST("/commit-prompts", cfg.BrandHandler.CommitPrompts)
			api.GET("/brands", cfg.BrandHandler.ListBrands)
			api.GET("/brands/stats", cfg.BrandHandler.BrandStats)
			api.GET("/brands/:id", cfg.BrandHandler.GetBrand)

			// Routes used by the first web client.
			api.POST("/onboarding", cfg.BrandHandler.Onboard)
			api.POST("/setPrompts", cfg.BrandHandler.CommitPrompts)
		}
	}

	return r
}
