package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/factgraph/factgraph/internal/model"
)

func newTestFetcher(maxBytes int64) *Fetcher {
	cfg := model.DefaultConfig()
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.RateLimit.RequestsPerSecond = 1000
	cfg.RateLimit.Burst = 1000
	return NewFetcher(cfg.HTTP, cfg.RateLimit)
}

func TestFetcher_FetchText_PlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "factgraph") {
			t.Errorf("unexpected user agent: %s", ua)
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  The reference document.  \n"))
	}))
	defer server.Close()

	text, err := newTestFetcher(2_000_000).FetchText(context.Background(), server.URL+"/doc")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if text != "The reference document." {
		t.Errorf("expected trimmed text, got %q", text)
	}
}

func TestFetcher_FetchText_HTML(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
<title>Curie</title>
<style>body { color: red; }</style>
<script>trackVisitors();</script>
</head>
<body>
<h1>Marie Curie</h1>
<p>Born in Warsaw.</p>
<noscript>Enable JavaScript.</noscript>
</body>
</html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	text, err := newTestFetcher(2_000_000).FetchText(context.Background(), server.URL+"/curie")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if !strings.Contains(text, "Marie Curie") || !strings.Contains(text, "Born in Warsaw.") {
		t.Errorf("expected visible text kept, got %q", text)
	}
	if strings.Contains(text, "trackVisitors") || strings.Contains(text, "color: red") {
		t.Errorf("expected script and style stripped, got %q", text)
	}
	if strings.Contains(text, "Enable JavaScript") {
		t.Errorf("expected noscript stripped, got %q", text)
	}
}

func TestFetcher_FetchText_MislabeledHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("<html><body><p>Sniffed anyway.</p></body></html>"))
	}))
	defer server.Close()

	text, err := newTestFetcher(2_000_000).FetchText(context.Background(), server.URL+"/doc")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if text != "Sniffed anyway." {
		t.Errorf("expected HTML reduced despite content type, got %q", text)
	}
}

func TestFetcher_FetchText_RobotsDisallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		t.Errorf("unexpected fetch of %s", r.URL.Path)
	}))
	defer server.Close()

	_, err := newTestFetcher(2_000_000).FetchText(context.Background(), server.URL+"/private/doc")
	if err == nil {
		t.Fatal("expected error for disallowed path")
	}
	if !strings.Contains(err.Error(), "robots.txt disallows fetching") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFetcher_FetchText_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher(2_000_000).FetchText(context.Background(), server.URL+"/doc")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unexpected status: 503") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFetcher_FetchText_BodySizeCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("0123456789abcdefTRUNCATED"))
	}))
	defer server.Close()

	text, err := newTestFetcher(16).FetchText(context.Background(), server.URL+"/doc")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if text != "0123456789abcdef" {
		t.Errorf("expected body capped at 16 bytes, got %q", text)
	}
}

func TestIsHTML(t *testing.T) {
	if !isHTML("text/html; charset=utf-8", "") {
		t.Error("expected content type match")
	}
	if !isHTML("text/plain", "<!DOCTYPE html><html></html>") {
		t.Error("expected doctype sniff")
	}
	if !isHTML("text/plain", "  <html lang=\"en\">") {
		t.Error("expected html prefix sniff")
	}
	if isHTML("text/plain", "just prose mentioning <html> later") {
		t.Error("expected plain text to stay plain")
	}
}
