package app

import (
	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding"
	"github.com/yungbote/brandprompt-backend/internal/observability"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
	"github.com/yungbote/brandprompt-backend/internal/services"
)

type Services struct {
	Lifecycle  services.BrandLifecycleService
	Onboarding services.OnboardingService
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	lifecycle := services.NewBrandLifecycleService(log, reposet.BrandRecord, clients.Events, metrics)
	synth := onboarding.NewSynthesizer(clients.Generator, log)
	onboard := services.NewOnboardingService(
		log,
		services.OnboardingConfig{
			MaxConcurrent: int64(cfg.Onboarding.MaxConcurrency),
			FetcherName:   clients.FetcherName,
			Breakers:      cfg.Onboarding.Breakers,
		},
		clients.Fetcher,
		synth,
		lifecycle,
		clients.Events,
		metrics,
	)
	return Services{
		Lifecycle:  lifecycle,
		Onboarding: onboard,
	}
}
