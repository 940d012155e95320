//go:build integration

package pgvector_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	pgv "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/custodia-labs/atlas-core/internal/adapters/driven/pgvector"
	"github.com/custodia-labs/atlas-core/internal/adapters/driven/postgres"
	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

const dims = 768

// unit returns a 768-dim vector with a single hot component
func unit(i int) []float32 {
	v := make([]float32, dims)
	v[i] = 1
	return v
}

type seedSite struct {
	collection string
	site       domain.Site
	vector     []float32
}

func startDatabase(t *testing.T) (*postgres.DB, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase("atlas"),
		tcPostgres.WithUsername("atlas"),
		tcPostgres.WithPassword("atlas"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "postgres container")
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://atlas:atlas@%s:%s/atlas?sslmode=disable", host, port.Port())
	require.NoError(t, postgres.Migrate(dsn, postgres.MigrateUp, 0))

	db, err := postgres.Connect(ctx, postgres.DefaultConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, dsn
}

func seed(t *testing.T, db *postgres.DB, rows []seedSite) {
	t.Helper()
	ctx := context.Background()
	for _, r := range rows {
		s := r.site
		_, err := db.ExecContext(ctx, `
			INSERT INTO sites (id, name, site_type, period_name, period_start, period_end, country, description, lat, lon, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			s.ID, s.Name, s.SiteType, s.PeriodName, postgres.NullInt(s.PeriodStart), postgres.NullInt(s.PeriodEnd),
			s.Country, s.Description, s.Lat, s.Lon, r.collection)
		require.NoError(t, err)

		_, err = db.ExecContext(ctx, `
			INSERT INTO site_vectors (collection, item_id, name, site_type, period_name, period_start, period_end, country, description, lat, lon, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			r.collection, s.ID, s.Name, s.SiteType, s.PeriodName, postgres.NullInt(s.PeriodStart), postgres.NullInt(s.PeriodEnd),
			s.Country, s.Description, s.Lat, s.Lon, pgv.NewVector(r.vector))
		require.NoError(t, err)
	}
}

func fixtures() []seedSite {
	return []seedSite{
		{"unesco", domain.Site{ID: "u1", Name: "Stonehenge", SiteType: "Stone Circle", PeriodStart: domain.IntPtr(-3000), PeriodEnd: domain.IntPtr(-2000),
			Country: "United Kingdom", Description: "Neolithic monument", Lat: 51.1789, Lon: -1.8262}, unit(0)},
		{"unesco", domain.Site{ID: "u2", Name: "Karnak", SiteType: "temple", PeriodStart: domain.IntPtr(-2000), PeriodEnd: domain.IntPtr(-30),
			Country: "Egypt", Description: "Temple complex at Luxor", Lat: 25.7188, Lon: 32.6573}, unit(1)},
		{"osm", domain.Site{ID: "o1", Name: "Avebury", SiteType: "stone circle",
			Country: "United Kingdom", Description: "Henge and stone circles", Lat: 51.4286, Lon: -1.8543}, unit(0)},
		{"volcanoes", domain.Site{ID: "v1", Name: "Vesuvius", SiteType: "volcano",
			Country: "Italy", Lat: 40.821, Lon: 14.426}, unit(2)},
	}
}

func TestIndexIntegration(t *testing.T) {
	db, _ := startDatabase(t)
	seed(t, db, fixtures())
	ctx := context.Background()
	index := pgvector.NewIndex(db)

	require.NoError(t, index.HealthCheck(ctx))

	t.Run("collections", func(t *testing.T) {
		got, err := index.Collections(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"unesco", "osm", "volcanoes"}, got)
	})

	t.Run("nearest first", func(t *testing.T) {
		hits, err := index.Query(ctx, "unesco", unit(1), domain.IndexFilter{}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "u2", hits[0].ID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
		assert.InDelta(t, 0.0, hits[1].Score, 1e-6)
	})

	t.Run("filters", func(t *testing.T) {
		hits, err := index.Query(ctx, "unesco", unit(1), domain.IndexFilter{
			SiteTypes:      []string{"stone circle"},
			PeriodStartLTE: domain.IntPtr(-2500),
		}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Stonehenge", hits[0].Name)
		require.NotNil(t, hits[0].PeriodEnd)
		assert.Equal(t, -2000, *hits[0].PeriodEnd)
	})

	t.Run("geo radius scroll", func(t *testing.T) {
		hits, err := index.Scroll(ctx, "osm", domain.IndexFilter{
			Geo: &domain.GeoRadius{Lat: 51.1789, Lon: -1.8262, RadiusKm: 40},
		}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Avebury", hits[0].Name)

		hits, err = index.Scroll(ctx, "osm", domain.IndexFilter{
			Geo: &domain.GeoRadius{Lat: 51.1789, Lon: -1.8262, RadiusKm: 5},
		}, 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestSiteStoreIntegration(t *testing.T) {
	db, dsn := startDatabase(t)
	seed(t, db, fixtures())
	ctx := context.Background()
	store := postgres.NewSiteStore(db)

	version, dirty, err := postgres.MigrationVersion(dsn)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	t.Run("fetch by ids skips missing", func(t *testing.T) {
		sites, err := store.FetchByIDs(ctx, []string{"u2", "missing", "o1"})
		require.NoError(t, err)
		require.Len(t, sites, 2)
		names := []string{sites[0].Name, sites[1].Name}
		assert.ElementsMatch(t, []string{"Karnak", "Avebury"}, names)
	})

	t.Run("keyword scan orders by source priority", func(t *testing.T) {
		sites, err := store.KeywordScan(ctx, []string{"stone"}, 10)
		require.NoError(t, err)
		require.Len(t, sites, 2)
		assert.Equal(t, "unesco", sites[0].Source)
		assert.Equal(t, "osm", sites[1].Source)
	})
}
