package driven

import (
	"context"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// SiteStore is the authoritative, read-only site record store
type SiteStore interface {
	// FetchByIDs returns full records for ids. Missing ids are skipped.
	FetchByIDs(ctx context.Context, ids []string) ([]*domain.Site, error)

	// KeywordScan matches terms against name, description and country,
	// ordered by source priority.
	KeywordScan(ctx context.Context, terms []string, limit int) ([]*domain.Site, error)

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error
}
