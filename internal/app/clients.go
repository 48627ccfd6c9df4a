package app

import (
	"context"
	"fmt"

	"github.com/yungbote/brandprompt-backend/internal/clients/redis"
	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding"
	"github.com/yungbote/brandprompt-backend/internal/observability"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
	"github.com/yungbote/brandprompt-backend/internal/pkg/pointers"
	"github.com/yungbote/brandprompt-backend/internal/platform/firecrawl"
	"github.com/yungbote/brandprompt-backend/internal/platform/gemini"
	"github.com/yungbote/brandprompt-backend/internal/platform/openai"
	"github.com/yungbote/brandprompt-backend/internal/platform/webfetch"
)

type Clients struct {
	Fetcher     onboarding.ContentFetcher
	FetcherName string
	Generator   onboarding.StructuredGenerator
	Events      redis.EventBus

	closers []func() error
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Content fetcher
	switch cfg.Fetcher.Provider {
	case "firecrawl":
		fc, err := firecrawl.NewClient(log, firecrawl.Config{
			APIKey:       cfg.Fetcher.FirecrawlAPIKey,
			BaseURL:      cfg.Fetcher.FirecrawlBaseURL,
			PollInterval: cfg.Fetcher.FirecrawlPollInterval.Duration,
			Timeout:      cfg.Fetcher.Timeout.Duration,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init firecrawl client: %w", err)
		}
		out.Fetcher = fc
	case "http":
		out.Fetcher = webfetch.NewHTTPFetcher(log, webfetch.HTTPConfig{Timeout: cfg.Fetcher.Timeout.Duration})
	case "rod":
		out.Fetcher = webfetch.NewRodFetcher(log, webfetch.RodConfig{
			ControlURL:        cfg.Fetcher.RodControlURL,
			NavigationTimeout: cfg.Fetcher.Timeout.Duration,
		})
	default:
		return Clients{}, fmt.Errorf("unknown fetcher provider %q", cfg.Fetcher.Provider)
	}
	out.FetcherName = cfg.Fetcher.Provider

	// Structured generator
	switch cfg.Generator.Provider {
	case "openai":
		oc, err := openai.NewClient(log, openai.Config{
			APIKey:      cfg.Generator.OpenAIAPIKey,
			BaseURL:     cfg.Generator.OpenAIBaseURL,
			Model:       cfg.Generator.OpenAIModel,
			Timeout:     cfg.Generator.OpenAITimeout.Duration,
			MaxRetries:  cfg.Generator.MaxRetries,
			Temperature: cfg.Generator.Temperature,
		}, metrics)
		if err != nil {
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		out.Generator = oc
	case "gemini":
		gcfg := gemini.Config{
			APIKey:  cfg.Generator.GeminiAPIKey,
			Model:   cfg.Generator.GeminiModel,
			BaseURL: cfg.Generator.GeminiBaseURL,
		}
		if t := cfg.Generator.Temperature; t != nil {
			gcfg.Temperature = pointers.Float32(float32(*t))
		}
		gc, err := gemini.NewClient(ctx, log, gcfg, metrics)
		if err != nil {
			return Clients{}, fmt.Errorf("init gemini client: %w", err)
		}
		out.Generator = gc
	default:
		return Clients{}, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}

	// Redis
	if cfg.Redis.Addr != "" {
		bus, err := redis.NewEventBus(ctx, log, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		out.Events = bus
		out.closers = append(out.closers, bus.Close)
	} else {
		out.Events = redis.NewNoopEventBus()
	}

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}
