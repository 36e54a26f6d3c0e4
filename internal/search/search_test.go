package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderSearch(t *testing.T) {
	results, err := NewPlaceholder().Search(context.Background(), "  solar panels  ")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Search result for: solar panels", results[0].Title)
	assert.Equal(t, "https://www.google.com/search?q=solar+panels", results[0].Link)
	assert.Contains(t, results[1].Snippet, "solar panels")
}

func TestPlaceholderSearchDeterministic(t *testing.T) {
	a, _ := NewPlaceholder().Search(context.Background(), "q")
	b, _ := NewPlaceholder().Search(context.Background(), "q")
	assert.Equal(t, a, b)
}

func TestPlaceholderSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPlaceholder().Search(ctx, "q")
	assert.ErrorIs(t, err, context.Canceled)
}
