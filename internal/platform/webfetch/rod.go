package webfetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type RodConfig struct {
	// ControlURL is a DevTools websocket URL. Empty launches a local headless Chrome.
	ControlURL        string
	NavigationTimeout time.Duration
	// SettleDelay is how long to wait after load for client-side rendering.
	SettleDelay time.Duration
}

// RodFetcher renders a page in headless Chrome and converts the resulting DOM
// to markdown. Each Fetch uses a fresh incognito context.
type RodFetcher struct {
	log *logger.Logger
	cfg RodConfig
}

func NewRodFetcher(log *logger.Logger, cfg RodConfig) *RodFetcher {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	return &RodFetcher{log: log.With("client", "RodFetcher"), cfg: cfg}
}

func (f *RodFetcher) Fetch(ctx context.Context, target string) (onboarding.FetchResult, error) {
	controlURL := strings.TrimSpace(f.cfg.ControlURL)
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(true).Context(ctx)
		u, err := l.Launch()
		if err != nil {
			return onboarding.FetchResult{}, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
		defer l.Cleanup()
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return onboarding.FetchResult{}, fmt.Errorf("connect to chrome: %w", err)
	}
	defer func() { _ = browser.Close() }()

	incognito, err := browser.Incognito()
	if err != nil {
		return onboarding.FetchResult{}, fmt.Errorf("incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return onboarding.FetchResult{}, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	timed := page.Context(ctx).Timeout(f.cfg.NavigationTimeout)
	if err := timed.Navigate(target); err != nil {
		return onboarding.FetchResult{}, fmt.Errorf("navigate: %w", err)
	}
	if err := timed.WaitLoad(); err != nil {
		return onboarding.FetchResult{}, fmt.Errorf("wait load: %w", err)
	}
	if f.cfg.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return onboarding.FetchResult{}, ctx.Err()
		case <-time.After(f.cfg.SettleDelay):
		}
	}

	raw, err := page.Context(ctx).HTML()
	if err != nil {
		return onboarding.FetchResult{}, fmt.Errorf("read DOM: %w", err)
	}
	md, err := HTMLToMarkdown(strings.NewReader(raw))
	if err != nil {
		return onboarding.FetchResult{}, err
	}

	item := onboarding.FetchItem{Text: md, SourceURL: target}
	if info, err := page.Info(); err == nil && info != nil && info.URL != "" {
		item.SourceURL = info.URL
	}
	f.log.Debug("page rendered", "url", item.SourceURL, "bytes", len(md))
	return onboarding.FetchResult{Items: []onboarding.FetchItem{item}}, nil
}
