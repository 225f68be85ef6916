package models

import "time"

// Document is a single search hit with its text excerpt and metadata.
type Document struct {
	ID            string  `json:"id"`
	Title         string  `json:"title,omitempty"`
	URL           string  `json:"url"`
	Author        string  `json:"author,omitempty"`
	PublishedDate string  `json:"published_date,omitempty"`
	Score         float64 `json:"score,omitempty"`
	Text          string  `json:"text"`
}

// SearchResult is the ordered set of documents returned for one query.
// A nil *SearchResult means the search failed; an empty Documents slice means it found nothing.
type SearchResult struct {
	Query string `json:"query"`
	// Autoprompt is the query as rewritten by the search service, when it did so.
	Autoprompt string      `json:"autoprompt,omitempty"`
	Documents  []*Document `json:"documents"`
}

// Empty reports whether r carries no documents. A nil result is empty.
func (r *SearchResult) Empty() bool {
	return r == nil || len(r.Documents) == 0
}

// Source is a citation kept alongside a generated post.
type Source struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// GeneratedPost is the opaque completion text plus bookkeeping about how it was produced.
type GeneratedPost struct {
	RequestID   string             `json:"request_id"`
	Content     string             `json:"content"`
	Model       string             `json:"model,omitempty"`
	Attempts    int                `json:"attempts"`
	Sources     []Source           `json:"sources,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Request     *GenerationRequest `json:"request,omitempty"`
}
