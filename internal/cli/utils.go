// Package cli provides output formatting for the kaku command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kaku/internal/generator"
	"github.com/hyperjump/kaku/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json"; empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text or json)", s)
	}
}

// WritePost writes a generated post to w in the given format.
// Text output is the post followed by its sources.
func WritePost(w io.Writer, post *models.GeneratedPost, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, post)
	}
	fmt.Fprintln(w, post.Content)
	if len(post.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
		fmt.Fprintln(w, "Sources:")
		for i, s := range post.Sources {
			if s.Title != "" {
				fmt.Fprintf(w, "  %d. %s\n     %s\n", i+1, Truncate(s.Title, 80), s.URL)
			} else {
				fmt.Fprintf(w, "  %d. %s\n", i+1, s.URL)
			}
		}
	}
	fmt.Fprintf(w, "\n(%s, %d attempt(s), request %s)\n", post.Model, post.Attempts, post.RequestID)
	return nil
}

// WritePostOnly writes just the post text, as saved to a download file.
func WritePostOnly(w io.Writer, post *models.GeneratedPost) error {
	_, err := io.WriteString(w, post.Content+"\n")
	return err
}

// WritePrompt writes a prompt preview to w in the given format.
func WritePrompt(w io.Writer, preview *generator.Preview, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, preview)
	}
	if preview.Search != nil {
		fmt.Fprintf(w, "Search: %q", preview.Search.Query)
		if preview.Search.Autoprompt != "" {
			fmt.Fprintf(w, " (rewritten as %q)", preview.Search.Autoprompt)
		}
		fmt.Fprintf(w, ", %d result(s)\n", len(preview.Search.Documents))
		for i, d := range preview.Search.Documents {
			fmt.Fprintf(w, "  %d. %s\n", i+1, TruncateWords(orURL(d), 12))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "--- system ---")
	fmt.Fprintln(w, preview.SystemPrompt)
	fmt.Fprintln(w, "--- user ---")
	fmt.Fprint(w, preview.Prompt)
	return nil
}

// WriteOptions lists the supported request options.
func WriteOptions(w io.Writer, opts models.Options, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, opts)
	}
	writeChoices(w, "Post types (--type)", opts.PostTypes, opts.DefaultPostType)
	writeChoices(w, "Lengths (--length)", opts.Lengths, opts.DefaultLength)
	writeChoices(w, "Languages (--language)", opts.Languages, opts.DefaultLanguage)
	return nil
}

func writeChoices(w io.Writer, title string, choices []models.Choice, def string) {
	fmt.Fprintf(w, "%s:\n", title)
	for _, c := range choices {
		marker := " "
		if c.Value == def {
			marker = "*"
		}
		if c.Label != c.Value {
			fmt.Fprintf(w, "  %s %-12s %s\n", marker, c.Value, c.Label)
		} else {
			fmt.Fprintf(w, "  %s %s\n", marker, c.Value)
		}
	}
	fmt.Fprintln(w)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func orURL(d *models.Document) string {
	if d.Title != "" {
		return d.Title
	}
	return d.URL
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
