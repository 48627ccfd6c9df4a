package webfetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding"
	"github.com/yungbote/brandprompt-backend/internal/pkg/httpx"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

const (
	defaultUserAgent = "brandprompt-fetcher/1.0"
	defaultMaxBytes  = 5 << 20
)

type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// HTTPFetcher fetches a page with a single GET and converts HTML to markdown.
// It does not run scripts; use RodFetcher for client-rendered sites.
type HTTPFetcher struct {
	log        *logger.Logger
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

func NewHTTPFetcher(log *logger.Logger, cfg HTTPConfig) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	return &HTTPFetcher{
		log:        log.With("client", "HTTPFetcher"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (onboarding.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return onboarding.FetchResult{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return onboarding.FetchResult{}, err
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, f.maxBytes)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(body, 1024))
		return onboarding.FetchResult{}, httpx.NewStatusError("webfetch", resp.StatusCode, raw)
	}

	item := onboarding.FetchItem{SourceURL: resp.Request.URL.String()}
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		md, err := HTMLToMarkdown(body)
		if err != nil {
			return onboarding.FetchResult{}, err
		}
		item.Text = md
	case strings.HasPrefix(mediaType, "text/"):
		raw, err := io.ReadAll(body)
		if err != nil {
			return onboarding.FetchResult{}, err
		}
		item.Text = string(raw)
	default:
		item.Warning = fmt.Sprintf("unsupported content type %q", mediaType)
	}
	f.log.Debug("page fetched", "url", item.SourceURL, "status", resp.StatusCode, "content_type", mediaType)
	return onboarding.FetchResult{Items: []onboarding.FetchItem{item}}, nil
}
