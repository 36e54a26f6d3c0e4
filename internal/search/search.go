// Package search supplies search results for search-grounded prompts.
package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

// Searcher produces results for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// Placeholder fabricates two results naming the query. No search engine is called.
type Placeholder struct{}

// NewPlaceholder creates a placeholder searcher.
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// Search returns two deterministic results for query.
func (Placeholder) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.TrimSpace(query)
	escaped := url.QueryEscape(q)

	return []model.SearchResult{
		{
			Title:   "Search result for: " + q,
			Link:    "https://www.google.com/search?q=" + escaped,
			Snippet: "General information and recent coverage about " + q + ".",
		},
		{
			Title:   q + " - Wikipedia",
			Link:    "https://en.wikipedia.org/w/index.php?search=" + escaped,
			Snippet: "Encyclopedic background on " + q + ".",
		},
	}, nil
}
