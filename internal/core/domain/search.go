package domain

import (
	"sort"
	"strings"
)

// CollectionKind separates site collections from geographic feature collections
type CollectionKind string

const (
	CollectionSites    CollectionKind = "sites"
	CollectionFeatures CollectionKind = "features"
)

// Collection is one similarity index scoped to a single data source.
type Collection struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Kind          CollectionKind `json:"kind"`
	QualityWeight float64        `json:"quality_weight"`
	FeatureType   string         `json:"feature_type,omitempty"`
}

// Catalog is the fixed set of collections with their quality weights.
// Weights are not user-configurable.
var Catalog = []Collection{
	{ID: "unesco", Name: "UNESCO World Heritage", Kind: CollectionSites, QualityWeight: 1.0},
	{ID: "historic_england", Name: "Historic England", Kind: CollectionSites, QualityWeight: 0.95},
	{ID: "pleiades", Name: "Pleiades Gazetteer", Kind: CollectionSites, QualityWeight: 0.95},
	{ID: "dare", Name: "Digital Atlas of the Roman Empire", Kind: CollectionSites, QualityWeight: 0.9},
	{ID: "wikidata", Name: "Wikidata", Kind: CollectionSites, QualityWeight: 0.8},
	{ID: "megalithic", Name: "Megalithic Portal", Kind: CollectionSites, QualityWeight: 0.75},
	{ID: "osm", Name: "OpenStreetMap", Kind: CollectionSites, QualityWeight: 0.6},
	{ID: "volcanoes", Name: "Holocene Volcanoes", Kind: CollectionFeatures, QualityWeight: 1.0, FeatureType: "volcano"},
	{ID: "impact_craters", Name: "Impact Craters", Kind: CollectionFeatures, QualityWeight: 1.0, FeatureType: "impact_crater"},
}

// SourcePriority orders sources for the keyword fallback, most authoritative first.
var SourcePriority = []string{"unesco", "historic_england", "pleiades", "dare", "wikidata", "megalithic", "osm"}

// LookupCollection returns the catalog entry for id
func LookupCollection(id string) (Collection, bool) {
	for _, c := range Catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Collection{}, false
}

// QualityWeight returns the fixed weight for a collection, 0.5 for unknown ids.
func QualityWeight(collectionID string) float64 {
	if c, ok := LookupCollection(collectionID); ok {
		return c.QualityWeight
	}
	return 0.5
}

// FeatureCollection resolves a feature type to its feature collection
func FeatureCollection(featureType string) (Collection, bool) {
	for _, c := range Catalog {
		if c.Kind == CollectionFeatures && c.FeatureType == featureType {
			return c, true
		}
	}
	return Collection{}, false
}

// ValidSiteTypes is the vocabulary the index actually stores.
// Parser output outside this set is dropped before filtering.
var ValidSiteTypes = map[string]bool{
	"temple": true, "sanctuary": true, "shrine": true, "church": true, "monastery": true, "mosque": true,
	"pyramid": true, "tomb": true, "burial mound": true, "barrow": true, "necropolis": true, "cemetery": true,
	"dolmen": true, "stone circle": true, "standing stone": true, "menhir": true, "cairn": true, "henge": true,
	"fort": true, "hillfort": true, "castle": true, "fortress": true, "city wall": true,
	"settlement": true, "city": true, "town": true, "village": true, "villa": true, "palace": true,
	"amphitheatre": true, "theatre": true, "stadium": true, "bath": true, "aqueduct": true, "road": true, "bridge": true,
	"rock art": true, "cave": true, "mine": true, "quarry": true, "harbour": true, "shipwreck": true,
	"geoglyph": true, "earthwork": true, "mound": true, "oppidum": true, "broch": true, "crannog": true,
}

// SearchOptions configures a site search
type SearchOptions struct {
	Sources []string `json:"sources,omitempty"`
	Filters Filters  `json:"filters"`
	Limit   int      `json:"limit"`
}

// GeoRadius restricts results to a circle around a point
type GeoRadius struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

// IndexFilter is the native filter expression sent to the vector index.
// All fields are optional and combined with AND.
type IndexFilter struct {
	SiteTypes       []string     `json:"site_types,omitempty"`
	PeriodStartGTE  *int         `json:"period_start_gte,omitempty"`
	PeriodStartLTE  *int         `json:"period_start_lte,omitempty"`
	PeriodEndLTE    *int         `json:"period_end_lte,omitempty"`
	BBox            *BoundingBox `json:"bbox,omitempty"`
	Geo             *GeoRadius   `json:"geo,omitempty"`
	CountryContains string       `json:"country_contains,omitempty"`
}

// IsEmpty reports whether the filter matches every row
func (f IndexFilter) IsEmpty() bool {
	return len(f.SiteTypes) == 0 && f.PeriodStartGTE == nil && f.PeriodStartLTE == nil &&
		f.PeriodEndLTE == nil && f.BBox == nil && f.Geo == nil && f.CountryContains == ""
}

// Matches evaluates the filter against a hit in memory.
// Rows without period data never satisfy a period bound.
func (f IndexFilter) Matches(h IndexHit) bool {
	if len(f.SiteTypes) > 0 {
		found := false
		for _, t := range f.SiteTypes {
			if NormalizeSiteType(h.SiteType) == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.PeriodStartGTE != nil && (h.PeriodStart == nil || *h.PeriodStart < *f.PeriodStartGTE) {
		return false
	}
	if f.PeriodStartLTE != nil && (h.PeriodStart == nil || *h.PeriodStart > *f.PeriodStartLTE) {
		return false
	}
	if f.PeriodEndLTE != nil && (h.PeriodEnd == nil || *h.PeriodEnd > *f.PeriodEndLTE) {
		return false
	}
	if f.BBox != nil && !f.BBox.Contains(h.Lat, h.Lon) {
		return false
	}
	if f.Geo != nil && !f.Geo.Within(h.Lat, h.Lon) {
		return false
	}
	if f.CountryContains != "" && !strings.Contains(strings.ToLower(h.Country), strings.ToLower(f.CountryContains)) {
		return false
	}
	return true
}

// IndexHit is one row returned by the vector index
type IndexHit struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	Name        string  `json:"name"`
	SiteType    string  `json:"site_type"`
	PeriodName  string  `json:"period_name"`
	PeriodStart *int    `json:"period_start,omitempty"`
	PeriodEnd   *int    `json:"period_end,omitempty"`
	Country     string  `json:"country"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// SearchResult is one ranked site
type SearchResult struct {
	SiteID        string  `json:"site_id"`
	RawScore      float64 `json:"raw_score"`
	WeightedScore float64 `json:"weighted_score"`
	CollectionID  string  `json:"collection_id"`
	Name          string  `json:"name"`
	SiteType      string  `json:"site_type"`
	PeriodName    string  `json:"period_name,omitempty"`
	Country       string  `json:"country,omitempty"`
	Description   string  `json:"description,omitempty"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	NearFeature   string  `json:"near_feature,omitempty"`
	FeatureType   string  `json:"feature_type,omitempty"`
}

// SortByWeightedScore orders results by weighted score, highest first.
// The sort is stable so equal scores keep their merge order.
func SortByWeightedScore(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].WeightedScore > results[j].WeightedScore
	})
}

// DedupeBySiteID keeps the first occurrence of each site id
func DedupeBySiteID(results []SearchResult) []SearchResult {
	seen := make(map[string]bool, len(results))
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if seen[r.SiteID] {
			continue
		}
		seen[r.SiteID] = true
		out = append(out, r)
	}
	return out
}
