package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	defaultMaxResults = 5
	maxBodyBytes      = 3 * 1024 * 1024
)

// DuckDuckGo scrapes the HTML endpoint, which needs no API key.
type DuckDuckGo struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*DuckDuckGo)

func WithBaseURL(baseURL string) Option {
	return func(d *DuckDuckGo) {
		if strings.TrimSpace(baseURL) != "" {
			d.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(d *DuckDuckGo) {
		if h != nil {
			d.httpClient = h
		}
	}
}

func NewDuckDuckGo(opts ...Option) *DuckDuckGo {
	d := &DuckDuckGo{
		baseURL: "https://duckduckgo.com",
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > 10 {
		maxResults = 10
	}

	endpoint := d.baseURL + "/html/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ContentFlow/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	return parseDuckResults(doc, maxResults), nil
}

func parseDuckResults(doc *html.Node, maxResults int) []Result {
	results := make([]Result, 0, maxResults)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil || len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			title := strings.TrimSpace(nodeText(n))
			href := attrValue(n, "href")
			resolved := resolveDuckResultURL(href)
			snippet := extractResultSnippet(n)
			if title != "" && resolved != "" {
				results = append(results, Result{Title: title, URL: resolved, Snippet: snippet})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results
}

func extractResultSnippet(anchor *html.Node) string {
	for p := anchor.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (hasClass(p, "result") || hasClass(p, "result__body")) {
			if snippet := findByClassText(p, "result__snippet"); snippet != "" {
				return snippet
			}
		}
	}
	return ""
}

func findByClassText(root *html.Node, className string) string {
	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && hasClass(n, className) {
			return strings.TrimSpace(nodeText(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if text := walk(c); text != "" {
				return text
			}
		}
		return ""
	}
	return walk(root)
}

func hasClass(n *html.Node, className string) bool {
	classAttr := attrValue(n, "class")
	if classAttr == "" {
		return false
	}
	for _, c := range strings.Fields(classAttr) {
		if c == className {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

func resolveDuckResultURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if q := u.Query().Get("uddg"); q != "" {
		decoded, err := url.QueryUnescape(q)
		if err == nil && decoded != "" {
			return decoded
		}
	}
	if strings.HasPrefix(raw, "/") {
		return "https://duckduckgo.com" + raw
	}
	if i, err := strconv.Atoi(raw); err == nil && i > 0 {
		return ""
	}
	return raw
}
