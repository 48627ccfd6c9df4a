package app

import (
	"github.com/yungbote/brandprompt-backend/internal/http"
	"github.com/yungbote/brandprompt-backend/internal/observability"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		BrandHandler:   handlers.Brand,
		HealthHandler:  handlers.Health,
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout.Duration,
	})
}
