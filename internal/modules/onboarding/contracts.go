package onboarding

import "context"

// FetchItem is one page returned by a Content Fetcher. Text holds the decoded
// payload as the provider returned it; it is expected, not guaranteed, to be a string.
type FetchItem struct {
	Text      any    `json:"text,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

type FetchResult struct {
	Items []FetchItem `json:"items"`
}

// ContentFetcher renders a URL into page content.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// StructuredGenerator returns a JSON object conforming to schema, or fails.
type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}
