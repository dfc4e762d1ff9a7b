package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const resultsPage = `
<html><body>
  <div class="result results_links results_links_deep web-result">
    <div class="result__body">
      <h2 class="result__title">
        <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fquantum">Quantum Computing Advances</a>
      </h2>
      <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fquantum">Researchers demonstrate a new error correction scheme.</a>
    </div>
  </div>
  <div class="result results_links results_links_deep web-result">
    <div class="result__body">
      <h2 class="result__title">
        <a class="result__a" href="https://example.org/news">Direct Link Result</a>
      </h2>
      <a class="result__snippet" href="https://example.org/news">A result whose href is already absolute.</a>
    </div>
  </div>
  <div class="result">
    <h2 class="result__title">
      <a class="result__a" href="">Missing Href Result</a>
    </h2>
  </div>
</body></html>`

func TestSearchParsesResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/html/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "quantum computing latest news 2026" {
			t.Fatalf("unexpected query %q", got)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer ts.Close()

	d := NewDuckDuckGo(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	results, err := d.Search(context.Background(), "quantum computing latest news 2026", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d: %#v", len(results), results)
	}

	first := results[0]
	if first.Title != "Quantum Computing Advances" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.URL != "https://example.com/quantum" {
		t.Fatalf("redirect url was not unwrapped: %q", first.URL)
	}
	if !strings.Contains(first.Snippet, "error correction") {
		t.Fatalf("unexpected snippet %q", first.Snippet)
	}

	second := results[1]
	if second.URL != "https://example.org/news" {
		t.Fatalf("absolute url was rewritten: %q", second.URL)
	}
}

func TestSearchHonorsMaxResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer ts.Close()

	d := NewDuckDuckGo(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))

	results, err := d.Search(context.Background(), "anything", 1)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	d := NewDuckDuckGo()
	if _, err := d.Search(context.Background(), "   ", 5); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestSearchReportsHTTPFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	d := NewDuckDuckGo(WithBaseURL(ts.URL), WithHTTPClient(ts.Client()))
	if _, err := d.Search(context.Background(), "anything", 5); err == nil {
		t.Fatalf("expected error for HTTP 503")
	}
}

func TestResolveDuckResultURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"absolute https", "https://example.com/a", "https://example.com/a"},
		{"absolute http", "http://example.com/a", "http://example.com/a"},
		{"redirect with uddg", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fb", "https://example.com/b"},
		{"site relative", "/html/?q=more", "https://duckduckgo.com/html/?q=more"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveDuckResultURL(tc.in); got != tc.want {
				t.Fatalf("resolveDuckResultURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
