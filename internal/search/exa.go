// Package search queries the external web search service for grounding documents.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/kaku/internal/config"
	"github.com/hyperjump/kaku/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultNumResults is how many documents one search asks for.
const DefaultNumResults = 5

// Searcher returns documents for a keyword query.
type Searcher interface {
	Search(ctx context.Context, query string) (*models.SearchResult, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string) (*models.SearchResult, error)

func (f SearcherFunc) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	return f(ctx, query)
}

// StatusError is a non-2xx answer from the search service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search service returned status %d: %s", e.StatusCode, e.Body)
}

type exaContents struct {
	Text bool `json:"text"`
}

type exaRequest struct {
	Query         string      `json:"query"`
	UseAutoprompt bool        `json:"useAutoprompt"`
	NumResults    int         `json:"numResults"`
	Contents      exaContents `json:"contents"`
}

type exaResult struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Score         *float64 `json:"score"`
	Text          string   `json:"text"`
}

type exaResponse struct {
	AutopromptString string      `json:"autopromptString"`
	Results          []exaResult `json:"results"`
	RequestID        string      `json:"requestId"`
}

// ExaClient calls the Exa (formerly Metaphor) search-and-contents endpoint.
// It is safe for concurrent use.
type ExaClient struct {
	cfg        config.SearchConfig
	numResults int
	maxTextLen int
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures an ExaClient.
type Option func(*ExaClient)

// WithNumResults overrides the number of requested results.
func WithNumResults(n int) Option {
	return func(c *ExaClient) {
		if n > 0 {
			c.numResults = n
		}
	}
}

// WithMaxTextLen caps each document's text; 0 keeps the full text.
func WithMaxTextLen(n int) Option {
	return func(c *ExaClient) { c.maxTextLen = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *ExaClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewExaClient creates a client from cfg. A missing API key is reported by Search.
func NewExaClient(cfg config.SearchConfig, opts ...Option) *ExaClient {
	c := &ExaClient{
		cfg:        cfg,
		numResults: DefaultNumResults,
		maxTextLen: DefaultMaxTextLen,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Second)/cfg.RequestsPerSecond)), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one autoprompted search for query. No retry is attempted.
func (c *ExaClient) Search(ctx context.Context, query string) (*models.SearchResult, error) {
	apiKey, err := c.cfg.SearchCredential()
	if err != nil {
		return nil, err
	}
	q, err := ProcessQuery(query)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("search rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(exaRequest{
		Query:         q,
		UseAutoprompt: true,
		NumResults:    c.numResults,
		Contents:      exaContents{Text: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var out exaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	if len(out.Results) > c.numResults {
		out.Results = out.Results[:c.numResults]
	}
	result := &models.SearchResult{
		Query:      q,
		Autoprompt: out.AutopromptString,
		Documents:  make([]*models.Document, 0, len(out.Results)),
	}
	for _, r := range out.Results {
		doc := &models.Document{
			ID:            r.ID,
			Title:         strings.TrimSpace(r.Title),
			URL:           r.URL,
			Author:        r.Author,
			PublishedDate: r.PublishedDate,
			Text:          Highlight(strings.TrimSpace(r.Text), c.maxTextLen),
		}
		if r.Score != nil {
			doc.Score = *r.Score
		}
		result.Documents = append(result.Documents, doc)
	}

	c.logger.Debug("search completed",
		zap.String("query", q),
		zap.String("autoprompt", out.AutopromptString),
		zap.String("search_request_id", out.RequestID),
		zap.Int("results", len(result.Documents)),
		zap.Duration("took", time.Since(start)),
	)
	return result, nil
}
