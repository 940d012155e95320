package driven

import (
	"context"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// WebSearcher fetches grounding snippets for knowledge questions.
// Any error means "no grounding available".
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int, category string) (*domain.WebSearchResponse, error)
}
