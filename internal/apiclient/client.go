package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/pkg/httpx"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

const DefaultTimeout = 30 * time.Second

type Config struct {
	// BaseURL is the server root, e.g. http://localhost:8080. "/api" is appended.
	BaseURL string
	Timeout time.Duration
}

// Client talks to the onboarding API. Error responses come back as
// *brand.Error with the server's kind and message.
type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "http://localhost:8080"
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		log:        log.With("client", "APIClient"),
		baseURL:    base + "/api",
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type recordEnvelope struct {
	BrandRecord *brand.BrandRecord `json:"brandRecord"`
}

func (c *Client) Onboard(ctx context.Context, brandName, rawURL string) (*brand.BrandRecord, error) {
	var out recordEnvelope
	body := map[string]string{"brandName": brandName, "url": rawURL}
	if err := c.do(ctx, http.MethodPost, "/onboard", body, &out); err != nil {
		return nil, err
	}
	return out.BrandRecord, nil
}

// CommitPrompts sends a curated Prompt Set. It satisfies curation.Committer.
func (c *Client) CommitPrompts(ctx context.Context, id string, ps brand.PromptSet) (*brand.BrandRecord, error) {
	var out recordEnvelope
	body := map[string]any{"id": id, "promptSet": ps}
	if err := c.do(ctx, http.MethodPost, "/commit-prompts", body, &out); err != nil {
		return nil, err
	}
	return out.BrandRecord, nil
}

func (c *Client) GetBrand(ctx context.Context, id string) (*brand.BrandRecord, error) {
	var out recordEnvelope
	if err := c.do(ctx, http.MethodGet, "/brands/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.BrandRecord, nil
}

// ListBrands pages through records matching filter; a zero filter lists all.
func (c *Client) ListBrands(ctx context.Context, filter brand.RecordFilter, page, limit int) (*brand.RecordPage, error) {
	q := url.Values{}
	filter = filter.Normalize()
	if filter.Query != "" {
		q.Set("q", filter.Query)
	}
	if filter.BrandName != "" {
		q.Set("brandName", filter.BrandName)
	}
	if filter.URL != "" {
		q.Set("url", filter.URL)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/brands"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out brand.RecordPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*brand.RecordStats, error) {
	var out brand.RecordStats
	if err := c.do(ctx, http.MethodGet, "/brands/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("API request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.log.Debug("API request", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(method+" "+path, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// decodeError rebuilds the server's {errorKind, message} payload. Anything
// else stays an *httpx.StatusError wrapped as InternalError.
func decodeError(op string, status int, raw []byte) error {
	var payload struct {
		ErrorKind brand.ErrorKind `json:"errorKind"`
		Message   string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.ErrorKind != "" {
		return brand.NewError(payload.ErrorKind, op, payload.Message, httpx.NewStatusError("api", status, raw))
	}
	return brand.NewError(brand.KindInternal, op, http.StatusText(status), httpx.NewStatusError("api", status, raw))
}
