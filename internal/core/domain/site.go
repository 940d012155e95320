package domain

import (
	"fmt"
	"strings"
)

// Site is the authoritative record for an archaeological site
type Site struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	SiteType    string  `json:"site_type"`
	PeriodName  string  `json:"period_name,omitempty"`
	PeriodStart *int    `json:"period_start,omitempty"`
	PeriodEnd   *int    `json:"period_end,omitempty"`
	Country     string  `json:"country,omitempty"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Source      string  `json:"source"`
	SourceURL   string  `json:"source_url,omitempty"`

	// Set when the site was found near a geographic feature
	NearFeature string `json:"near_feature,omitempty"`
	FeatureType string `json:"feature_type,omitempty"`
}

// DateRange renders the period bounds as a human readable range
func (s *Site) DateRange() string {
	switch {
	case s.PeriodStart != nil && s.PeriodEnd != nil:
		return FormatYear(*s.PeriodStart) + " to " + FormatYear(*s.PeriodEnd)
	case s.PeriodStart != nil:
		return "from " + FormatYear(*s.PeriodStart)
	case s.PeriodEnd != nil:
		return "until " + FormatYear(*s.PeriodEnd)
	}
	return ""
}

// SiteMarker is the minimal shape emitted to the map in a sites event
type SiteMarker struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Marker converts a site into a map marker
func (s *Site) Marker() SiteMarker {
	return SiteMarker{ID: s.ID, Name: s.Name, Lat: s.Lat, Lon: s.Lon}
}

// SiteFromResult builds a partial record from a search hit when the
// authoritative store has no row for it.
func SiteFromResult(r SearchResult) *Site {
	return &Site{
		ID:          r.SiteID,
		Name:        r.Name,
		SiteType:    r.SiteType,
		PeriodName:  r.PeriodName,
		Country:     r.Country,
		Description: r.Description,
		Lat:         r.Lat,
		Lon:         r.Lon,
		Source:      r.CollectionID,
		NearFeature: r.NearFeature,
		FeatureType: r.FeatureType,
	}
}

// FormatYear renders a signed year as "500 BC" / "AD 43"
func FormatYear(y int) string {
	if y < 0 {
		return fmt.Sprintf("%d BC", -y)
	}
	return fmt.Sprintf("AD %d", y)
}

// NormalizeSiteType lowercases and trims a site type for comparison
func NormalizeSiteType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
