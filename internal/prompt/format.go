package prompt

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kaku/internal/models"
)

// FormatDocument renders one search result as it appears in the prompt. n is 1-based.
func FormatDocument(n int, d *models.Document) string {
	var sb strings.Builder
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&sb, "[%d] %s\n", n, title)
	fmt.Fprintf(&sb, "URL: %s\n", d.URL)
	if d.Author != "" {
		fmt.Fprintf(&sb, "Author: %s\n", d.Author)
	}
	if d.PublishedDate != "" {
		fmt.Fprintf(&sb, "Published: %s\n", d.PublishedDate)
	}
	if text := strings.TrimSpace(d.Text); text != "" {
		fmt.Fprintf(&sb, "Content: %s\n", text)
	}
	return sb.String()
}

// FormatDocuments renders docs in order, separated by blank lines.
func FormatDocuments(docs []*models.Document) string {
	if len(docs) == 0 {
		return "(no results)\n"
	}
	parts := make([]string, 0, len(docs))
	for i, d := range docs {
		if d == nil {
			continue
		}
		parts = append(parts, FormatDocument(i+1, d))
	}
	return strings.Join(parts, "\n")
}
