// Package prompt renders conversation context into prompt text and composes
// generation requests.
package prompt

import (
	"strings"

	"github.com/capitalize-ai/multilingual-assistant/internal/model"
)

// HistorySeparator separates turns in a formatted history.
const HistorySeparator = "\n\n"

// FormatHistory renders turns as "role: content" entries separated by a blank line.
func FormatHistory(turns []model.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = string(t.Role) + ": " + t.Content
	}
	return strings.Join(parts, HistorySeparator)
}

// FormatFiles renders each document as a "File:"/"Content:" block.
func FormatFiles(docs []model.Document) string {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString("File: ")
		b.WriteString(d.Name)
		b.WriteString("\nContent: ")
		b.WriteString(d.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSearchResults renders results in input order.
func FormatSearchResults(results []model.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = "Title: " + r.Title + "\nLink: " + r.Link + "\nSnippet: " + r.Snippet + "\n"
	}
	return strings.Join(blocks, "\n")
}
