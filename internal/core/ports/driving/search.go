package driving

import (
	"context"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// SearchService handles site search across collections
type SearchService interface {
	// Search performs a semantic search with optional filters
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SearchNearFeature finds sites within radiusKm of features of a type
	SearchNearFeature(ctx context.Context, featureType string, sources []string, radiusKm float64, limit int) ([]domain.SearchResult, error)

	// Collections lists the searchable collections
	Collections(ctx context.Context) ([]domain.Collection, error)
}
