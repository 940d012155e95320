package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SiteStore = (*SiteStore)(nil)

// SiteStore implements driven.SiteStore using PostgreSQL
type SiteStore struct {
	db *DB
}

// NewSiteStore creates a new SiteStore
func NewSiteStore(db *DB) *SiteStore {
	return &SiteStore{db: db}
}

const siteColumns = `id, name, site_type, period_name, period_start, period_end,
		       country, description, lat, lon, source, source_url`

// FetchByIDs returns full records for ids in no particular order. Missing ids are skipped.
func (s *SiteStore) FetchByIDs(ctx context.Context, ids []string) ([]*domain.Site, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + siteColumns + `
		FROM sites
		WHERE id = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("fetch sites: %w", err)
	}
	defer rows.Close()

	return scanSites(rows)
}

// KeywordScan matches any term against name, description and country.
// Results are ordered by source priority, then name.
func (s *SiteStore) KeywordScan(ctx context.Context, terms []string, limit int) ([]*domain.Site, error) {
	query, args := keywordScanQuery(terms, limit)
	if query == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword scan: %w", err)
	}
	defer rows.Close()

	return scanSites(rows)
}

// Ping verifies the store is reachable
func (s *SiteStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// keywordScanQuery builds the keyword fallback query. It returns "" when no
// usable term remains.
func keywordScanQuery(terms []string, limit int) (string, []any) {
	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		patterns = append(patterns, "%"+escapeLike(t)+"%")
	}
	if len(patterns) == 0 {
		return "", nil
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + siteColumns + `
		FROM sites
		WHERE name ILIKE ANY($1) OR description ILIKE ANY($1) OR country ILIKE ANY($1)
		ORDER BY COALESCE(array_position($2::text[], source), 2147483647), name
		LIMIT $3
	`
	return query, []any{pq.Array(patterns), pq.Array(domain.SourcePriority), limit}
}

// escapeLike escapes the LIKE metacharacters in s
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanSites(rows *sql.Rows) ([]*domain.Site, error) {
	var sites []*domain.Site
	for rows.Next() {
		var site domain.Site
		var start, end sql.NullInt64
		if err := rows.Scan(
			&site.ID,
			&site.Name,
			&site.SiteType,
			&site.PeriodName,
			&start,
			&end,
			&site.Country,
			&site.Description,
			&site.Lat,
			&site.Lon,
			&site.Source,
			&site.SourceURL,
		); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		site.PeriodStart = IntPtr(start)
		site.PeriodEnd = IntPtr(end)
		sites = append(sites, &site)
	}
	return sites, rows.Err()
}
