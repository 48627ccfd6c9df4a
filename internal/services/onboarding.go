package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding"
	"github.com/yungbote/brandprompt-backend/internal/observability"
	"github.com/yungbote/brandprompt-backend/internal/pkg/breaker"
	"github.com/yungbote/brandprompt-backend/internal/pkg/ctxutil"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type OnboardingService interface {
	// Onboard runs fetch, normalize, synthesize and create in order. The
	// only write is the final create; any earlier failure leaves the store
	// untouched.
	Onboard(ctx context.Context, brandName, rawURL string) (*brand.BrandRecord, error)
}

type OnboardingConfig struct {
	// MaxConcurrent caps simultaneous onboard pipelines; <=0 means 4.
	MaxConcurrent int64
	FetcherName   string
	Breakers      bool
}

type onboardingService struct {
	log         *logger.Logger
	fetcher     onboarding.ContentFetcher
	synthesizer *onboarding.Synthesizer
	lifecycle   BrandLifecycleService
	events      EventPublisher
	metrics     *observability.Metrics

	fetcherName  string
	sem          *semaphore.Weighted
	fetchBreaker *breaker.Breaker
	synthBreaker *breaker.Breaker
}

func NewOnboardingService(
	baseLog *logger.Logger,
	cfg OnboardingConfig,
	fetcher onboarding.ContentFetcher,
	synthesizer *onboarding.Synthesizer,
	lifecycle BrandLifecycleService,
	events EventPublisher,
	metrics *observability.Metrics,
) OnboardingService {
	serviceLog := baseLog.With("service", "OnboardingService")
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.FetcherName == "" {
		cfg.FetcherName = "fetcher"
	}
	s := &onboardingService{
		log:         serviceLog,
		fetcher:     fetcher,
		synthesizer: synthesizer,
		lifecycle:   lifecycle,
		events:      events,
		metrics:     metrics,
		fetcherName: cfg.FetcherName,
		sem:         semaphore.NewWeighted(cfg.MaxConcurrent),
	}
	if cfg.Breakers {
		s.fetchBreaker = breaker.New(breaker.DefaultConfig("content-fetcher"), serviceLog)
		s.synthBreaker = breaker.New(breaker.DefaultConfig("structured-generator"), serviceLog)
	}
	return s
}

func (s *onboardingService) Onboard(ctx context.Context, brandName, rawURL string) (rec *brand.BrandRecord, err error) {
	const op = "Onboarding.Onboard"
	ctx, span := observability.Tracer().Start(ctx, "onboarding.onboard", trace.WithAttributes(attribute.String("brand.url", rawURL)))
	started := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(kindOrInternal(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		s.metrics.IncOnboardOutcome(outcome)
		s.log.Info("onboard finished", append(ctxutil.LogFields(ctx),
			"url", rawURL,
			"outcome", outcome,
			"duration_ms", time.Since(started).Milliseconds(),
		)...)
		span.End()
	}()

	name, u, err := ValidateOnboardInput(op, brandName, rawURL)
	if err != nil {
		return nil, err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, brand.NewError(brand.KindInternal, op, "onboarding aborted before start", err)
	}
	defer s.sem.Release(1)

	document, err := s.fetch(ctx, u)
	if err != nil {
		return nil, err
	}

	ps, err := s.synthesize(ctx, document, u)
	if err != nil {
		return nil, err
	}

	// The caller may have gone away during synthesis; the result is discarded
	// and nothing is written.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, brand.Synthesis(op, "synthesis result discarded: request cancelled", ctxErr)
	}

	stageStart := time.Now()
	rec, err = s.lifecycle.Create(ctx, name, u, ps)
	s.metrics.ObserveOnboardStage("create", stageStatus(err), time.Since(stageStart))
	if err != nil {
		return nil, err
	}
	publish(ctx, s.log, s.events, s.metrics, brand.NewEvent(brand.EventOnboarded, rec))
	return rec, nil
}

func (s *onboardingService) fetch(ctx context.Context, u string) (string, error) {
	const op = "Onboarding.Fetch"
	ctx, span := observability.Tracer().Start(ctx, "onboarding.fetch")
	defer span.End()
	start := time.Now()

	res, err := breaker.Do(s.fetchBreaker, func() (onboarding.FetchResult, error) {
		return s.fetcher.Fetch(ctx, u)
	})
	if err != nil {
		s.metrics.IncFetcherRequest(s.fetcherName, "error")
		s.metrics.ObserveOnboardStage("fetch", "error", time.Since(start))
		span.RecordError(err)
		s.log.Warn("content fetch failed", append(ctxutil.LogFields(ctx), "url", u, "error", err)...)
		if breaker.IsOpen(err) {
			return "", brand.ContentExtraction(op, "content fetcher temporarily unavailable", err)
		}
		var be *brand.Error
		if errors.As(err, &be) {
			return "", err
		}
		return "", brand.ContentExtraction(op, "failed to fetch URL content", err)
	}
	s.metrics.IncFetcherRequest(s.fetcherName, "ok")
	for _, item := range res.Items {
		if item.Warning != "" {
			s.log.Warn("content fetcher warning", append(ctxutil.LogFields(ctx), "url", u, "warning", item.Warning)...)
		}
	}

	document, err := onboarding.Normalize(res)
	s.metrics.ObserveOnboardStage("fetch", stageStatus(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.Int("document.bytes", len(document)))
	return document, nil
}

func (s *onboardingService) synthesize(ctx context.Context, document, u string) (brand.PromptSet, error) {
	const op = "Onboarding.Synthesize"
	ctx, span := observability.Tracer().Start(ctx, "onboarding.synthesize")
	defer span.End()
	start := time.Now()

	ps, err := breaker.Do(s.synthBreaker, func() (brand.PromptSet, error) {
		return s.synthesizer.Synthesize(ctx, document, u)
	})
	s.metrics.ObserveOnboardStage("synthesize", stageStatus(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		if breaker.IsOpen(err) {
			return brand.PromptSet{}, brand.Synthesis(op, "structured generator temporarily unavailable", err)
		}
		return brand.PromptSet{}, err
	}
	return ps, nil
}

func stageStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func kindOrInternal(err error) brand.ErrorKind {
	if k := brand.KindOf(err); k != "" {
		return k
	}
	return brand.KindInternal
}
