package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

func sampleTurns() []model.Turn {
	return []model.Turn{
		{Role: model.RoleUser, Content: "Hello"},
		{Role: model.RoleAssistant, Content: "Hi, how can I help?"},
		{Role: model.RoleSystem, Content: "Files uploaded: a.txt. You can ask questions about these files."},
		{Role: model.RoleUser, Content: "Hello"},
	}
}

func TestFormatHistoryPreservesOrderAndCount(t *testing.T) {
	turns := sampleTurns()
	out := FormatHistory(turns)

	parts := strings.Split(out, HistorySeparator)
	require.Len(t, parts, len(turns))
	for i, turn := range turns {
		assert.Equal(t, string(turn.Role)+": "+turn.Content, parts[i])
	}
}

func TestFormattersEmptyInput(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil))
	assert.Equal(t, "", FormatFiles(nil))
	assert.Equal(t, "", FormatSearchResults(nil))
}

func TestFormatFiles(t *testing.T) {
	out := FormatFiles([]model.Document{
		{Name: "a.txt", Content: "Price: $10"},
		{Name: "b.md", Content: "# Notes"},
	})
	assert.Equal(t, "File: a.txt\nContent: Price: $10\nFile: b.md\nContent: # Notes\n", out)
}

func TestFormatSearchResultsKeepsInputOrder(t *testing.T) {
	out := FormatSearchResults([]model.SearchResult{
		{Title: "Second", Link: "https://b.example", Snippet: "b"},
		{Title: "First", Link: "https://a.example", Snippet: "a"},
	})
	assert.Less(t, strings.Index(out, "Title: Second"), strings.Index(out, "Title: First"))
	assert.Contains(t, out, "Link: https://a.example\nSnippet: a\n")
}

func TestComposeChat(t *testing.T) {
	c := NewComposer(DefaultParams())

	req := c.Compose(Input{Mode: model.ModeChat, Language: "fr", Turns: sampleTurns()})
	assert.Equal(t, model.ModeChat, req.Mode)
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 0.9, req.TopP)
	assert.Equal(t, 40, req.TopK)
	assert.Equal(t, 2048, req.MaxOutputTokens)
	assert.True(t, strings.HasPrefix(req.PromptText, "You are a helpful, multilingual assistant. Please respond in French language."))
	assert.True(t, strings.HasSuffix(req.PromptText, "user: Hello"))
	assert.Equal(t, 1, strings.Count(req.PromptText, "Please respond in French language."))
}

func TestComposeChatEmptyHistory(t *testing.T) {
	c := NewComposer(DefaultParams())

	req := c.Compose(Input{Mode: model.ModeChat, Language: "en"})
	assert.Equal(t, "You are a helpful, multilingual assistant.", req.PromptText)
}

func TestComposeFile(t *testing.T) {
	c := NewComposer(DefaultParams())
	question := "What does the uploaded file say about pricing?"

	req := c.Compose(Input{
		Mode:      model.ModeFile,
		Language:  "en",
		Documents: []model.Document{{Name: "a.txt", Content: "Price: $10"}},
		Query:     question,
	})
	assert.Equal(t, model.ModeFile, req.Mode)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Contains(t, req.PromptText, "Price: $10")
	assert.Contains(t, req.PromptText, "based on its content only")
	assert.True(t, strings.HasSuffix(req.PromptText, question))
}

func TestComposeSearch(t *testing.T) {
	c := NewComposer(DefaultParams())

	req := c.Compose(Input{
		Mode:     model.ModeSearch,
		Language: "de",
		Query:    "golang generics",
		Results: []model.SearchResult{
			{Title: "Generics tutorial", Link: "https://go.dev/doc/tutorial/generics", Snippet: "Type parameters"},
		},
	})
	assert.Equal(t, 0.3, req.Temperature)
	assert.Contains(t, req.PromptText, `search for information about: "golang generics"`)
	assert.Contains(t, req.PromptText, "as if you had searched the web")
	assert.Contains(t, req.PromptText, "Please respond in German language.")
	assert.Contains(t, req.PromptText, "Title: Generics tutorial")
}

func TestComposeIsDeterministicAndPure(t *testing.T) {
	c := NewComposer(DefaultParams())
	turns := sampleTurns()
	docs := []model.Document{{Name: "a.txt", Content: "alpha"}, {Name: "b.txt", Content: "beta"}}
	in := Input{Mode: model.ModeFile, Language: "hi", Turns: turns, Documents: docs, Query: "summarise the document"}

	first := c.Compose(in)
	second := c.Compose(in)
	assert.Equal(t, first.PromptText, second.PromptText)
	assert.Equal(t, sampleTurns(), turns)
	assert.Equal(t, "alpha", docs[0].Content)
}

func TestComposeUnknownModeFallsBackToChat(t *testing.T) {
	c := NewComposer(DefaultParams())

	req := c.Compose(Input{Mode: "", Language: "en", Turns: sampleTurns()[:1]})
	assert.Equal(t, model.ModeChat, req.Mode)
	assert.Equal(t, "You are a helpful, multilingual assistant.\n\nuser: Hello", req.PromptText)
}
