package app

import (
	"github.com/yungbote/brandprompt-backend/internal/data/db"
	httpH "github.com/yungbote/brandprompt-backend/internal/http/handlers"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Brand  *httpH.BrandHandler
}

func wireHandlers(log *logger.Logger, services Services, store *db.Handle) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(store),
		Brand:  httpH.NewBrandHandler(log, services.Onboarding, services.Lifecycle),
	}
}
