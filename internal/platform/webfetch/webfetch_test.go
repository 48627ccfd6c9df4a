package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

const samplePage = `<!doctype html>
<html><head><title>Acme Rockets</title><style>.x{color:red}</style><script>alert(1)</script></head>
<body>
  <h1>Reach orbit   faster</h1>
  <p>Acme builds <a href="/pricing">reusable rockets</a> for small teams.</p>
  <ul><li>Launch as a service</li><li>Ground control API</li></ul>
  <noscript>enable js</noscript>
</body></html>`

func TestHTMLToMarkdown(t *testing.T) {
	md, err := HTMLToMarkdown(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("HTMLToMarkdown: %v", err)
	}
	for _, want := range []string{
		"# Acme Rockets",
		"# Reach orbit faster",
		"Acme builds [reusable rockets](/pricing) for small teams.",
		"- Launch as a service",
		"- Ground control API",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	for _, banned := range []string{"alert(1)", "color:red", "enable js"} {
		if strings.Contains(md, banned) {
			t.Fatalf("markdown should not contain %q:\n%s", banned, md)
		}
	}
}

func newFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewHTTPFetcher(log, HTTPConfig{})
}

func TestHTTPFetcherConvertsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	res, err := newFetcher(t).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items: want=1 got=%d", len(res.Items))
	}
	text, ok := res.Items[0].Text.(string)
	if !ok || !strings.Contains(text, "Acme builds") {
		t.Fatalf("unexpected text: %#v", res.Items[0].Text)
	}
}

func TestHTTPFetcherUnsupportedTypeHasNoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	res, err := newFetcher(t).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Items[0].Text != nil || res.Items[0].Warning == "" {
		t.Fatalf("want nil text with warning, got %+v", res.Items[0])
	}
}

func TestHTTPFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := newFetcher(t).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for 403")
	}
}
