package pgvector

import (
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

func TestBuildWhere_CollectionOnly(t *testing.T) {
	where, args := buildWhere("unesco", domain.IndexFilter{})

	assert.Equal(t, "collection = $1", where)
	assert.Equal(t, []any{"unesco"}, args)
}

func TestBuildWhere_AllConditions(t *testing.T) {
	filter := domain.IndexFilter{
		SiteTypes:       []string{"Temple ", "sanctuary"},
		PeriodStartGTE:  domain.IntPtr(-800),
		PeriodStartLTE:  domain.IntPtr(-146),
		PeriodEndLTE:    domain.IntPtr(400),
		BBox:            &domain.BoundingBox{MinLat: 34.8, MinLon: 19.4, MaxLat: 41.8, MaxLon: 28.3},
		Geo:             &domain.GeoRadius{Lat: 40.82, Lon: 14.43, RadiusKm: 50},
		CountryContains: "gre",
	}

	where, args := buildWhere("pleiades", filter)
	conds := strings.Split(where, " AND ")

	require.Len(t, args, 13)
	assert.Equal(t, "collection = $1", conds[0])
	assert.Equal(t, "lower(site_type) = ANY($2)", conds[1])
	assert.Equal(t, pq.Array([]string{"temple", "sanctuary"}), args[1])
	assert.Contains(t, where, "period_start >= $3")
	assert.Contains(t, where, "period_start <= $4")
	assert.Contains(t, where, "period_end <= $5")
	assert.Contains(t, where, "lat BETWEEN $6 AND $7")
	assert.Contains(t, where, "lon BETWEEN $8 AND $9")
	assert.Contains(t, where, "radians(lat - $10)")
	assert.Contains(t, where, "radians(lon - $11)")
	assert.Contains(t, where, "<= $12")
	assert.Contains(t, where, "country ILIKE $13")
}

func TestBuildWhere_ArgumentValues(t *testing.T) {
	filter := domain.IndexFilter{
		PeriodStartGTE:  domain.IntPtr(-500),
		Geo:             &domain.GeoRadius{Lat: 1.5, Lon: 2.5, RadiusKm: 80},
		CountryContains: "100%",
	}

	_, args := buildWhere("osm", filter)

	assert.Equal(t, []any{"osm", -500, 1.5, 2.5, 80.0, `%100\%%`}, args)
}

func TestBuildWhere_LeadingArgs(t *testing.T) {
	where, args := buildWhere("dare", domain.IndexFilter{PeriodEndLTE: domain.IntPtr(0)}, "vec")

	assert.Equal(t, "collection = $2 AND period_end <= $3", where)
	assert.Equal(t, []any{"vec", "dare", 0}, args)
}

func TestHaversineUsesEarthRadius(t *testing.T) {
	where, _ := buildWhere("x", domain.IndexFilter{Geo: &domain.GeoRadius{RadiusKm: 1}})
	assert.Contains(t, where, "2 * 6371 * asin")
}

func TestQueryStatement(t *testing.T) {
	query, args := queryStatement("unesco", []float32{0.1, 0.2}, domain.IndexFilter{SiteTypes: []string{"tomb"}}, 0)

	require.Len(t, args, 4)
	assert.Contains(t, query, "1 - (embedding <=> $1) AS score")
	assert.Contains(t, query, "ORDER BY embedding <=> $1")
	assert.Contains(t, query, "collection = $2")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(query), "LIMIT $4"))
	assert.Equal(t, 20, args[3])
}

func TestScrollStatement(t *testing.T) {
	query, args := scrollStatement("volcanoes", domain.IndexFilter{}, 200)

	assert.Equal(t, []any{"volcanoes", 200}, args)
	assert.NotContains(t, query, "ORDER BY")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(query), "LIMIT $2"))
}
