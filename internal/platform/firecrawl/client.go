package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding"
	"github.com/yungbote/brandprompt-backend/internal/pkg/httpx"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
}

func (c Config) withDefaults() Config {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = "https://api.firecrawl.dev"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Client fetches a single page through a one-page Firecrawl crawl job and
// polls the job until it finishes.
type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing FIRECRAWL_API_KEY")
	}
	return &Client{
		log:        log.With("client", "FirecrawlClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type scrapeOptions struct {
	Formats []string `json:"formats"`
}

type crawlRequest struct {
	URL               string        `json:"url"`
	Limit             int           `json:"limit"`
	MaxDiscoveryDepth int           `json:"maxDiscoveryDepth"`
	ScrapeOptions     scrapeOptions `json:"scrapeOptions"`
}

type crawlStarted struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error,omitempty"`
}

type crawlDocument struct {
	Markdown *string `json:"markdown"`
	Warning  string  `json:"warning,omitempty"`
	Metadata struct {
		SourceURL string `json:"sourceURL,omitempty"`
	} `json:"metadata"`
}

type crawlStatus struct {
	Status      string          `json:"status"`
	Total       int             `json:"total"`
	Completed   int             `json:"completed"`
	CreditsUsed int             `json:"creditsUsed"`
	Next        *string         `json:"next"`
	Data        []crawlDocument `json:"data"`
	Error       string          `json:"error,omitempty"`
}

// Fetch crawls exactly one page at depth 1 in markdown format.
func (c *Client) Fetch(ctx context.Context, target string) (onboarding.FetchResult, error) {
	var started crawlStarted
	err := c.doJSON(ctx, http.MethodPost, "/v2/crawl", crawlRequest{
		URL:               target,
		Limit:             1,
		MaxDiscoveryDepth: 1,
		ScrapeOptions:     scrapeOptions{Formats: []string{"markdown"}},
	}, &started)
	if err != nil {
		return onboarding.FetchResult{}, fmt.Errorf("firecrawl start crawl: %w", err)
	}
	if !started.Success || strings.TrimSpace(started.ID) == "" {
		return onboarding.FetchResult{}, fmt.Errorf("firecrawl start crawl: %s", orDefault(started.Error, "no job id returned"))
	}
	c.log.Debug("crawl started", "job_id", started.ID, "url", target)

	status, err := c.wait(ctx, started.ID)
	if err != nil {
		return onboarding.FetchResult{}, err
	}

	res := onboarding.FetchResult{Items: make([]onboarding.FetchItem, 0, len(status.Data))}
	for _, doc := range status.Data {
		item := onboarding.FetchItem{SourceURL: doc.Metadata.SourceURL, Warning: doc.Warning}
		if doc.Markdown != nil {
			item.Text = *doc.Markdown
		}
		res.Items = append(res.Items, item)
	}
	c.log.Debug("crawl completed", "job_id", started.ID, "items", len(res.Items), "credits_used", status.CreditsUsed)
	return res, nil
}

func (c *Client) wait(ctx context.Context, id string) (*crawlStatus, error) {
	path := "/v2/crawl/" + url.PathEscape(id)
	for {
		var st crawlStatus
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &st); err != nil {
			if !httpx.IsRetryableError(err) {
				return nil, fmt.Errorf("firecrawl crawl status: %w", err)
			}
			c.log.Warn("crawl status poll failed, retrying", "job_id", id, "error", err)
		} else {
			switch strings.ToLower(st.Status) {
			case "completed":
				return &st, nil
			case "failed", "cancelled":
				return nil, fmt.Errorf("firecrawl crawl %s: %s", st.Status, orDefault(st.Error, "no detail"))
			}
		}
		if err := httpx.Sleep(ctx, c.cfg.PollInterval); err != nil {
			return nil, err
		}
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
		rdr = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpx.NewStatusError("firecrawl", resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("firecrawl decode error: %w", err)
	}
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
