package driven

import (
	"context"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// VectorIndex is the per-collection similarity index.
// Collections are read-only from the core's perspective.
type VectorIndex interface {
	// Query returns the nearest rows to vector within one collection, best first
	Query(ctx context.Context, collection string, vector []float32, filter domain.IndexFilter, limit int) ([]domain.IndexHit, error)

	// Scroll returns rows matching filter in no particular order
	Scroll(ctx context.Context, collection string, filter domain.IndexFilter, limit int) ([]domain.IndexHit, error)

	// Collections lists the collection ids that currently hold data
	Collections(ctx context.Context) ([]string, error)

	// HealthCheck verifies the index is reachable
	HealthCheck(ctx context.Context) error
}
