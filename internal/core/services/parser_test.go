package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

func TestQueryParser_RomanTemplesInGreece(t *testing.T) {
	intent := NewQueryParser().Parse("Find Roman temples in Greece")

	assert.True(t, intent.WantsHighlight)
	assert.Subset(t, intent.SiteTypes, []string{"temple", "sanctuary", "shrine"})
	assert.Equal(t, intent.SiteTypes, intent.Filters.SiteTypes)
	assert.Equal(t, "Greece", intent.RegionName)
	require.NotNil(t, intent.Filters.BBox)
	assert.Equal(t, domain.BoundingBox{MinLat: 34.8, MinLon: 19.3, MaxLat: 41.8, MaxLon: 29.7}, *intent.Filters.BBox)
	assert.Equal(t, "Greece", intent.Filters.CountryContains)

	assert.Equal(t, "Roman", intent.PeriodName)
	require.NotNil(t, intent.Filters.PeriodStartMin)
	require.NotNil(t, intent.Filters.PeriodEndMax)
	assert.Equal(t, -753, *intent.Filters.PeriodStartMin)
	assert.Equal(t, 476, *intent.Filters.PeriodEndMax)
	assert.Nil(t, intent.Filters.PeriodStartMax)

	assert.Empty(t, intent.SearchTerms)
	assert.Equal(t, "Find Roman temples in Greece", intent.SemanticQuery())
}

func TestQueryParser_Pure(t *testing.T) {
	p := NewQueryParser()
	q := "show me bronze age burial mounds within 20 miles of a volcano in Italy"
	first := p.Parse(q)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.Parse(q))
	}
}

func TestQueryParser_Highlight(t *testing.T) {
	p := NewQueryParser()
	assert.True(t, p.Parse("map the hillforts").WantsHighlight)
	assert.True(t, p.Parse("Where are the pyramids").WantsHighlight)
	assert.False(t, p.Parse("tell me about henges").WantsHighlight)
}

func TestQueryParser_Source(t *testing.T) {
	p := NewQueryParser()
	assert.Equal(t, []string{"unesco"}, p.Parse("UNESCO world heritage temples").SourceIDs)
	assert.Equal(t, []string{"pleiades"}, p.Parse("places in pleiades").SourceIDs)
	assert.Equal(t, []string{"osm"}, p.Parse("castles from OSM").SourceIDs)
	assert.Nil(t, p.Parse("cosmos temple").SourceIDs, "aliases match whole words only")
}

func TestQueryParser_Feature(t *testing.T) {
	p := NewQueryParser()

	intent := p.Parse("settlements near volcanoes")
	assert.Equal(t, "volcano", intent.FeatureType)
	assert.Equal(t, 50.0, intent.FeatureRadiusKm)

	intent = p.Parse("sites within 30 km of an impact crater")
	assert.Equal(t, "impact_crater", intent.FeatureType)
	assert.Equal(t, 30.0, intent.FeatureRadiusKm)

	intent = p.Parse("villages within 10 miles of a volcano")
	assert.InDelta(t, 16.09344, intent.FeatureRadiusKm, 1e-9)

	intent = p.Parse("temples within 10 km of Athens")
	assert.Empty(t, intent.FeatureType)
	assert.Zero(t, intent.FeatureRadiusKm)
}

func TestQueryParser_PeriodFirstMatchWins(t *testing.T) {
	p := NewQueryParser()

	intent := p.Parse("roman empire forts")
	assert.Equal(t, "Roman Empire", intent.PeriodName)
	assert.Equal(t, -27, *intent.Filters.PeriodStartMin)

	intent = p.Parse("late bronze age and neolithic tombs")
	assert.Equal(t, "Late Bronze Age", intent.PeriodName)
	assert.Equal(t, -1200, *intent.Filters.PeriodEndMax)
}

func TestQueryParser_ExplicitYears(t *testing.T) {
	p := NewQueryParser()

	tests := []struct {
		name     string
		query    string
		startMin *int
		startMax *int
		endMax   *int
	}{
		{"older than bc", "tombs older than 3000 BC", nil, domain.IntPtr(-3000), nil},
		{"older than years", "sites older than 5000 years", nil, domain.IntPtr(1950 - 5000), nil},
		{"after ad", "churches built after 1100 AD", domain.IntPtr(1100), nil, nil},
		{"since plain year", "forts since 1200", domain.IntPtr(1200), nil, nil},
		{"bare bc window", "settlements from 2500 BC", domain.IntPtr(-3000), domain.IntPtr(-2000), nil},
		{"bare ad prefix", "towns around AD 43", domain.IntPtr(-457), domain.IntPtr(543), nil},
		{"century bc", "temples of the 5th century BC", domain.IntPtr(-500), domain.IntPtr(-401), nil},
		{"thousands separator", "caves older than 10,000 BC", nil, domain.IntPtr(-10000), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := p.Parse(tt.query).Filters
			assert.Equal(t, tt.startMin, f.PeriodStartMin, "start min")
			assert.Equal(t, tt.startMax, f.PeriodStartMax, "start max")
			assert.Equal(t, tt.endMax, f.PeriodEndMax, "end max")
		})
	}
}

func TestQueryParser_ExplicitYearsOverrideNamedPeriod(t *testing.T) {
	intent := NewQueryParser().Parse("roman villas after 200 AD")
	assert.Equal(t, "Roman", intent.PeriodName)
	assert.Equal(t, 200, *intent.Filters.PeriodStartMin)
	assert.Equal(t, 476, *intent.Filters.PeriodEndMax)
}

func TestQueryParser_BareYearIgnoredWhenBoundSet(t *testing.T) {
	intent := NewQueryParser().Parse("neolithic sites like those from 3000 BC")
	assert.Equal(t, -7000, *intent.Filters.PeriodStartMin)
	assert.Nil(t, intent.Filters.PeriodStartMax)
}

func TestQueryParser_Region(t *testing.T) {
	p := NewQueryParser()

	intent := p.Parse("stone circles in Scotland")
	assert.Equal(t, "Scotland", intent.RegionName)
	assert.Equal(t, "United Kingdom", intent.Filters.CountryContains)

	intent = p.Parse("minoan palaces on Crete in Greece")
	assert.Equal(t, "Crete", intent.RegionName, "first table entry wins")
	assert.Equal(t, "Greece", intent.Filters.CountryContains)

	intent = p.Parse("temples in Jordan")
	assert.Empty(t, intent.RegionName)
	assert.Nil(t, intent.Filters.BBox)
	assert.Equal(t, "Jordan", intent.Filters.CountryContains)

	intent = p.Parse("sites in romania")
	assert.Empty(t, intent.PeriodName, "roman must not match inside romania")
	assert.Equal(t, "Romania", intent.Filters.CountryContains)
}

func TestQueryParser_SiteTypesAccumulate(t *testing.T) {
	intent := NewQueryParser().Parse("castles and churches and stone circles")
	for _, typ := range []string{"castle", "fortress", "church", "monastery", "stone circle", "henge"} {
		assert.Contains(t, intent.SiteTypes, typ)
	}

	seen := make(map[string]bool)
	for _, typ := range intent.SiteTypes {
		assert.False(t, seen[typ], "duplicate %s", typ)
		seen[typ] = true
	}
}

func TestQueryParser_SearchTerms(t *testing.T) {
	p := NewQueryParser()

	intent := p.Parse("sun worship temples in Egypt with solar alignment")
	assert.Equal(t, []string{"sun", "worship", "solar", "alignment"}, intent.SearchTerms)
	assert.Equal(t, "sun worship solar alignment", intent.SemanticQuery())

	intent = p.Parse("gold gold hoard")
	assert.Equal(t, []string{"gold", "hoard"}, intent.SearchTerms)
}

func TestQueryParser_SearchTermsKeepAccentedNames(t *testing.T) {
	p := NewQueryParser()

	intent := p.Parse("Göbekli Tepe")
	assert.Equal(t, []string{"göbekli", "tepe"}, intent.SearchTerms)
	assert.Equal(t, "göbekli tepe", intent.SemanticQuery())

	intent = p.Parse("Çatalhöyük")
	assert.Equal(t, []string{"çatalhöyük"}, intent.SearchTerms)
}
