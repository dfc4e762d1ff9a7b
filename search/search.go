// Package search provides the web-search capability consumed by the
// research stage. Results are ordered; an empty result set is a valid
// outcome, not an error.
package search

import "context"

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

type SearcherFunc func(ctx context.Context, query string, maxResults int) ([]Result, error)

func (f SearcherFunc) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx, query, maxResults)
}
