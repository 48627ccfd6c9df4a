package services

import (
	"context"
	"sync"
	"testing"

	"github.com/yungbote/brandprompt-backend/internal/data/db"
	"github.com/yungbote/brandprompt-backend/internal/data/repos"
	"github.com/yungbote/brandprompt-backend/internal/data/repos/testutil"
	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []brand.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt brand.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) types() []brand.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]brand.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type lifecycleFixture struct {
	log       *logger.Logger
	repo      repos.BrandRecordRepo
	events    *recordingPublisher
	lifecycle BrandLifecycleService
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	log := testutil.Logger(t)
	gdb := testutil.DB(t)
	repo := repos.NewBrandRecordRepo(db.Static(gdb), log)
	events := &recordingPublisher{}
	return &lifecycleFixture{
		log:       log,
		repo:      repo,
		events:    events,
		lifecycle: NewBrandLifecycleService(log, repo, events, nil),
	}
}

func (f *lifecycleFixture) count(t *testing.T) int64 {
	t.Helper()
	page, err := f.lifecycle.List(context.Background(), brand.RecordFilter{}, 1, MaxPageLimit)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return page.Total
}
