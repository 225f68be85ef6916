package generator

import (
	"context"
	"fmt"

	"github.com/hyperjump/kaku/internal/models"
	"github.com/hyperjump/kaku/internal/prompt"
	"go.uber.org/zap"
)

// Preview is everything that would be sent to the completion service for a request.
type Preview struct {
	Request      *models.GenerationRequest `json:"request"`
	Search       *models.SearchResult      `json:"search"`
	SystemPrompt string                    `json:"system_prompt"`
	Prompt       string                    `json:"prompt"`
}

// Preview validates req, runs the search and assembles the prompt without
// calling the completion service. req is not modified.
func (g *Generator) Preview(ctx context.Context, req *models.GenerationRequest) (*Preview, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	r := *req
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	log := g.logger.With(zap.String("request_id", r.ID))

	res, err := g.searcher.Search(ctx, r.Keywords)
	if err != nil {
		log.Error("search failed", zap.String("keywords", r.Keywords), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	if res.Empty() {
		log.Warn("search returned no results", zap.String("keywords", r.Keywords))
		return nil, ErrNoSearchResults
	}
	log.Debug("search results",
		zap.Int("documents", len(res.Documents)),
		zap.String("autoprompt", res.Autoprompt),
	)

	text, err := prompt.Build(&r, res)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Request:      &r,
		Search:       res,
		SystemPrompt: prompt.SystemPrompt,
		Prompt:       text,
	}, nil
}

// PreviewPost parses the option strings like GeneratePost and runs Preview.
func (g *Generator) PreviewPost(ctx context.Context, keywords, postType, length, language string) (*Preview, error) {
	req, err := models.NewGenerationRequest(keywords, postType, length, language)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return g.Preview(ctx, req)
}
