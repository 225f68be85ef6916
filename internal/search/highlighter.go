package search

import "unicode/utf8"

// DefaultMaxTextLen caps each document's text before it reaches the prompt.
const DefaultMaxTextLen = 3000

// Highlight truncates content to maxLen runes and marks the cut with "...".
func Highlight(content string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(content) <= maxLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxLen]) + "..."
}
