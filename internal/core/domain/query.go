package domain

// BoundingBox is a geographic rectangle in decimal degrees
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Filters is the closed set of structured constraints extracted from a query.
// Years are signed: negative values are BC/BCE.
type Filters struct {
	PeriodStartMin  *int         `json:"period_start_gte,omitempty"`
	PeriodStartMax  *int         `json:"period_start_lte,omitempty"`
	PeriodEndMax    *int         `json:"period_end_lte,omitempty"`
	BBox            *BoundingBox `json:"bbox,omitempty"`
	SiteTypes       []string     `json:"site_types,omitempty"`
	CountryContains string       `json:"country_contains,omitempty"`
}

// IsEmpty reports whether no constraint is set
func (f Filters) IsEmpty() bool {
	return f.PeriodStartMin == nil && f.PeriodStartMax == nil && f.PeriodEndMax == nil &&
		f.BBox == nil && len(f.SiteTypes) == 0 && f.CountryContains == ""
}

// HasPeriodBound reports whether any period bound is set
func (f Filters) HasPeriodBound() bool {
	return f.PeriodStartMin != nil || f.PeriodStartMax != nil || f.PeriodEndMax != nil
}

// Normalize returns a copy whose period bounds are mutually consistent.
// Inverted start bounds are swapped. An end bound earlier than the start
// lower bound is dropped, because an explicit "after N" must not be cancelled
// by a named period that ended before N.
func (f Filters) Normalize() Filters {
	out := f
	if out.PeriodStartMin != nil && out.PeriodStartMax != nil && *out.PeriodStartMin > *out.PeriodStartMax {
		lo, hi := *out.PeriodStartMax, *out.PeriodStartMin
		out.PeriodStartMin, out.PeriodStartMax = &lo, &hi
	}
	if out.PeriodStartMin != nil && out.PeriodEndMax != nil && *out.PeriodStartMin > *out.PeriodEndMax {
		out.PeriodEndMax = nil
	}
	if out.BBox != nil {
		b := *out.BBox
		if b.MinLat > b.MaxLat {
			b.MinLat, b.MaxLat = b.MaxLat, b.MinLat
		}
		if b.MinLon > b.MaxLon {
			b.MinLon, b.MaxLon = b.MaxLon, b.MinLon
		}
		out.BBox = &b
	}
	return out
}

// QueryIntent is the structured reading of a raw query.
type QueryIntent struct {
	RawQuery        string   `json:"raw_query"`
	SearchTerms     []string `json:"search_terms"`
	Filters         Filters  `json:"filters"`
	WantsHighlight  bool     `json:"wants_highlight"`
	SiteTypes       []string `json:"site_types,omitempty"`
	PeriodName      string   `json:"period_name,omitempty"`
	RegionName      string   `json:"region_name,omitempty"`
	SourceIDs       []string `json:"source_ids,omitempty"`
	FeatureType     string   `json:"feature_type,omitempty"`
	FeatureRadiusKm float64  `json:"feature_radius_km,omitempty"`
}

// SemanticQuery joins the leftover search terms, falling back to the raw query
// when every word was consumed by a structured filter.
func (q *QueryIntent) SemanticQuery() string {
	if len(q.SearchTerms) == 0 {
		return q.RawQuery
	}
	out := q.SearchTerms[0]
	for _, t := range q.SearchTerms[1:] {
		out += " " + t
	}
	return out
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// QueryAnalysis is the combined classifier and parser output for a query
type QueryAnalysis struct {
	Query          string               `json:"query"`
	Classification ClassificationResult `json:"classification"`
	Intent         QueryIntent          `json:"intent"`
}
