package services

import (
	"context"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/brandprompt-backend/internal/data/repos"
	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/observability"
	"github.com/yungbote/brandprompt-backend/internal/pkg/ctxutil"
	"github.com/yungbote/brandprompt-backend/internal/pkg/dbctx"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// EventPublisher receives a notification after every successful write.
type EventPublisher interface {
	Publish(ctx context.Context, evt brand.Event) error
}

type BrandLifecycleService interface {
	Create(ctx context.Context, brandName, rawURL string, ps brand.PromptSet) (*brand.BrandRecord, error)
	Update(ctx context.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error)
	Get(ctx context.Context, id string) (*brand.BrandRecord, error)
	List(ctx context.Context, filter brand.RecordFilter, page, limit int) (*brand.RecordPage, error)
	Stats(ctx context.Context) (*brand.RecordStats, error)
	// CommitPrompts is Update under the name curation sessions expect.
	CommitPrompts(ctx context.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error)
}

type brandLifecycleService struct {
	log     *logger.Logger
	repo    repos.BrandRecordRepo
	events  EventPublisher
	metrics *observability.Metrics
	now     func() time.Time
}

func NewBrandLifecycleService(
	baseLog *logger.Logger,
	repo repos.BrandRecordRepo,
	events EventPublisher,
	metrics *observability.Metrics,
) BrandLifecycleService {
	return &brandLifecycleService{
		log:     baseLog.With("service", "BrandLifecycleService"),
		repo:    repo,
		events:  events,
		metrics: metrics,
		now:     time.Now,
	}
}

// ValidateOnboardInput checks brand name and URL without touching the store.
func ValidateOnboardInput(op, brandName, rawURL string) (string, string, error) {
	name := strings.TrimSpace(brandName)
	u := strings.TrimSpace(rawURL)
	if name == "" || u == "" {
		return "", "", brand.Validation(op, "brandName and url are required")
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return "", "", brand.InvalidURL(op, u, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", "", brand.InvalidURL(op, u, nil)
	}
	return name, u, nil
}

func (s *brandLifecycleService) Create(ctx context.Context, brandName, rawURL string, ps brand.PromptSet) (*brand.BrandRecord, error) {
	const op = "BrandLifecycle.Create"
	name, u, err := ValidateOnboardInput(op, brandName, rawURL)
	if err != nil {
		return nil, err
	}
	if err := brand.ValidateShape(ps); err != nil {
		return nil, err
	}

	rec := &brand.BrandRecord{
		BrandName:  name,
		URL:        u,
		PromptData: []brand.PromptSet{ps.Clone()},
	}
	created, err := s.repo.Create(dbctx.Background(ctx), rec)
	if err != nil {
		s.log.Error("brand record create failed", append(ctxutil.LogFields(ctx), "error", err)...)
		return nil, mapStoreError(op, err)
	}
	s.log.Info("brand record created", append(ctxutil.LogFields(ctx), "record_id", created.ID, "brand", created.BrandName)...)
	return created, nil
}

func (s *brandLifecycleService) Update(ctx context.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error) {
	const op = "BrandLifecycle.Update"
	id = strings.TrimSpace(id)
	if id == "" {
		s.metrics.IncCommitOutcome(string(brand.KindValidation))
		return nil, brand.Validation(op, "Brand ID is required")
	}
	if err := brand.ValidateShape(ps); err != nil {
		s.metrics.IncCommitOutcome(string(brand.KindOf(err)))
		return nil, err
	}

	updated, err := s.repo.ReplacePromptData(dbctx.Background(ctx), id, ps.Clone())
	if err != nil {
		mapped := mapStoreError(op, err)
		s.metrics.IncCommitOutcome(string(brand.KindOf(mapped)))
		if brand.IsKind(mapped, brand.KindPersistence) {
			s.log.Error("prompt data update failed", append(ctxutil.LogFields(ctx), "record_id", id, "error", err)...)
		}
		return nil, mapped
	}
	s.metrics.IncCommitOutcome("ok")
	s.log.Info("prompt data replaced", append(ctxutil.LogFields(ctx),
		"record_id", updated.ID,
		"categories", len(ps.Categories),
		"questions", ps.QuestionCount(),
	)...)
	publish(ctx, s.log, s.events, s.metrics, brand.NewEvent(brand.EventPromptsCommitted, updated))
	return updated, nil
}

func (s *brandLifecycleService) CommitPrompts(ctx context.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error) {
	return s.Update(ctx, id, ps)
}

func (s *brandLifecycleService) Get(ctx context.Context, id string) (*brand.BrandRecord, error) {
	const op = "BrandLifecycle.Get"
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, brand.Validation(op, "Brand ID is required")
	}
	rec, err := s.repo.GetByID(dbctx.Background(ctx), id)
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	return rec, nil
}

// List pages through records matching filter, newest first.
func (s *brandLifecycleService) List(ctx context.Context, filter brand.RecordFilter, page, limit int) (*brand.RecordPage, error) {
	const op = "BrandLifecycle.List"
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	records, total, err := s.repo.List(dbctx.Background(ctx), filter.Normalize(), (page-1)*limit, limit)
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	return &brand.RecordPage{
		Data:       records,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Stats counts records created overall, today, this week and this month,
// using UTC calendar boundaries.
func (s *brandLifecycleService) Stats(ctx context.Context) (*brand.RecordStats, error) {
	const op = "BrandLifecycle.Stats"
	now := s.now().UTC()
	stats, err := s.repo.Stats(dbctx.Background(ctx), brand.WindowsAt(now))
	if err != nil {
		s.log.Error("brand record stats failed", append(ctxutil.LogFields(ctx), "error", err)...)
		return nil, mapStoreError(op, err)
	}
	stats.AsOf = now
	return &stats, nil
}

// publish never fails the caller; the write has already happened.
func publish(ctx context.Context, log *logger.Logger, events EventPublisher, metrics *observability.Metrics, evt brand.Event) {
	if events == nil {
		return
	}
	if err := events.Publish(context.WithoutCancel(ctx), evt); err != nil {
		metrics.IncEventPublished(string(evt.Type), "error")
		log.Warn("brand event publish failed", append(ctxutil.LogFields(ctx), "type", evt.Type, "record_id", evt.RecordID, "error", err)...)
		return
	}
	metrics.IncEventPublished(string(evt.Type), "ok")
}
