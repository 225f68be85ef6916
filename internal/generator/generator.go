// Package generator runs the search, prompt and retried completion pipeline for one post.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/kaku/internal/config"
	"github.com/hyperjump/kaku/internal/llm"
	"github.com/hyperjump/kaku/internal/models"
	"github.com/hyperjump/kaku/internal/prompt"
	"github.com/hyperjump/kaku/internal/retry"
	"github.com/hyperjump/kaku/internal/search"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRequest wraps request parsing and validation failures.
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrSearchFailed wraps any search error, including a missing credential.
	ErrSearchFailed = errors.New("search failed")
	// ErrNoSearchResults means the search succeeded but returned nothing to ground the post on.
	ErrNoSearchResults = errors.New("no search results")
	// ErrGenerationExhausted wraps the last completion error after every attempt failed.
	ErrGenerationExhausted = errors.New("generation failed after all attempts")
)

// Generator is immutable after New and safe for concurrent use.
type Generator struct {
	searcher  search.Searcher
	completer llm.Completer
	policy    retry.Policy
	model     string
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithPolicy replaces the default retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(g *Generator) { g.policy = p }
}

// WithModel records the model name on generated posts when the service does not report one.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock overrides the time source for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a generator around a searcher and a completer.
func New(searcher search.Searcher, completer llm.Completer, opts ...Option) *Generator {
	g := &Generator{
		searcher:  searcher,
		completer: completer,
		policy:    retry.Default(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FromConfig wires the Exa search client and the chat completion client from cfg.
func FromConfig(cfg *config.Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	searcher := search.NewExaClient(cfg.Search, search.WithLogger(logger.Named("search")))
	completer := llm.NewClient(cfg.Generation, logger.Named("llm"))
	return New(searcher, completer,
		WithModel(completer.Model()),
		WithLogger(logger.Named("generator")),
	)
}

// Messages is the two-turn exchange sent for a prompt.
func Messages(userPrompt string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: prompt.SystemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}
}

// GeneratePost is the caller-facing entry point: it parses the four option
// strings and runs Generate. A nil post always comes with a non-nil error.
func (g *Generator) GeneratePost(ctx context.Context, keywords, postType, length, language string) (*models.GeneratedPost, error) {
	req, err := models.NewGenerationRequest(keywords, postType, length, language)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return g.Generate(ctx, req)
}

// Generate searches for the request keywords, builds the prompt and asks the
// completion service for the post under the retry policy. Generation is skipped
// when the search fails or finds nothing.
func (g *Generator) Generate(ctx context.Context, req *models.GenerationRequest) (*models.GeneratedPost, error) {
	preview, err := g.Preview(ctx, req)
	if err != nil {
		return nil, err
	}
	r := preview.Request
	log := g.logger.With(zap.String("request_id", r.ID))

	policy := g.policy
	hook := policy.OnRetry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		log.Warn("generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if hook != nil {
			hook(attempt, err, wait)
		}
	}

	messages := Messages(preview.Prompt)
	var completion *llm.Completion
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		c, err := g.completer.Complete(ctx, messages)
		if err != nil {
			return err
		}
		completion = c
		return nil
	})
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			log.Error("generation exhausted", zap.Int("attempts", attempts), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrGenerationExhausted, err)
		}
		log.Warn("generation interrupted", zap.Int("attempts", attempts), zap.Error(err))
		return nil, fmt.Errorf("generation interrupted: %w", err)
	}

	model := completion.Model
	if model == "" {
		model = g.model
	}
	post := &models.GeneratedPost{
		RequestID:   r.ID,
		Content:     completion.Content,
		Model:       model,
		Attempts:    attempts,
		Sources:     sources(preview.Search),
		GeneratedAt: g.now().UTC(),
		Request:     r,
	}
	log.Info("post generated",
		zap.Int("attempts", attempts),
		zap.String("model", model),
		zap.Int("chars", len(post.Content)),
	)
	return post, nil
}

func sources(res *models.SearchResult) []models.Source {
	if res.Empty() {
		return nil
	}
	out := make([]models.Source, 0, len(res.Documents))
	for _, d := range res.Documents {
		if d == nil || d.URL == "" {
			continue
		}
		out = append(out, models.Source{Title: d.Title, URL: d.URL})
	}
	return out
}
