package search

import (
	"strings"

	"github.com/hyperjump/kaku/internal/models"
)

// ProcessQuery collapses whitespace in the keywords and rejects an empty query.
func ProcessQuery(query string) (string, error) {
	q := strings.Join(strings.Fields(query), " ")
	if q == "" {
		return "", models.ErrEmptyKeywords
	}
	return q, nil
}
