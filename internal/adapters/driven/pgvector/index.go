package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/atlas-core/internal/adapters/driven/postgres"
	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index implements driven.VectorIndex over the site_vectors table.
// Each collection is the set of rows sharing a collection id.
type Index struct {
	db *postgres.DB
}

// NewIndex creates a new Index
func NewIndex(db *postgres.DB) *Index {
	return &Index{db: db}
}

const hitColumns = `item_id, name, site_type, period_name, period_start, period_end,
		       country, description, lat, lon`

// Query returns the nearest rows by cosine distance. Score is 1 - distance.
func (ix *Index) Query(ctx context.Context, collection string, vector []float32, filter domain.IndexFilter, limit int) ([]domain.IndexHit, error) {
	query, args := queryStatement(collection, vector, filter, limit)

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	return scanHits(rows, true)
}

// Scroll returns rows matching filter in storage order
func (ix *Index) Scroll(ctx context.Context, collection string, filter domain.IndexFilter, limit int) ([]domain.IndexHit, error) {
	query, args := scrollStatement(collection, filter, limit)

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scroll %s: %w", collection, err)
	}
	defer rows.Close()

	return scanHits(rows, false)
}

// Collections lists the collection ids that currently hold rows
func (ix *Index) Collections(ctx context.Context) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT DISTINCT collection FROM site_vectors ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// HealthCheck verifies the table is queryable
func (ix *Index) HealthCheck(ctx context.Context) error {
	var one int
	err := ix.db.QueryRowContext(ctx, `SELECT 1 FROM site_vectors LIMIT 1`).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("vector index: %w", err)
	}
	return nil
}

func queryStatement(collection string, vector []float32, filter domain.IndexFilter, limit int) (string, []any) {
	where, args := buildWhere(collection, filter, pgv.NewVector(vector))
	args = append(args, positiveLimit(limit))
	query := `
		SELECT ` + hitColumns + `, 1 - (embedding <=> $1) AS score
		FROM site_vectors
		WHERE ` + where + `
		ORDER BY embedding <=> $1
		LIMIT $` + strconv.Itoa(len(args))
	return query, args
}

func scrollStatement(collection string, filter domain.IndexFilter, limit int) (string, []any) {
	where, args := buildWhere(collection, filter)
	args = append(args, positiveLimit(limit))
	query := `
		SELECT ` + hitColumns + `
		FROM site_vectors
		WHERE ` + where + `
		LIMIT $` + strconv.Itoa(len(args))
	return query, args
}

func positiveLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func scanHits(rows *sql.Rows, scored bool) ([]domain.IndexHit, error) {
	var hits []domain.IndexHit
	for rows.Next() {
		var h domain.IndexHit
		var start, end sql.NullInt64
		dest := []any{
			&h.ID, &h.Name, &h.SiteType, &h.PeriodName, &start, &end,
			&h.Country, &h.Description, &h.Lat, &h.Lon,
		}
		if scored {
			dest = append(dest, &h.Score)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		h.PeriodStart = postgres.IntPtr(start)
		h.PeriodEnd = postgres.IntPtr(end)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
