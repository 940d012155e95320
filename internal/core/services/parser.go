package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// presentYear anchors "N years ago" style constraints. Using the radiocarbon
// convention keeps parsing independent of the wall clock.
const presentYear = 1950

// bareYearWindow is the half-width of the window around a bare "N BC" mention
const bareYearWindow = 500

const yearNumber = `(\d{1,3}(?:,\d{3})+|\d+)`

var (
	olderThanRe = regexp.MustCompile(`\b(?:older than|earlier than|prior to|predating|before)\s+` + yearNumber + `\s*(bc|bce|ad|ce|years?)?\b`)
	newerThanRe = regexp.MustCompile(`\b(?:newer than|younger than|later than|more recent than|after|since)\s+` + yearNumber + `\s*(bc|bce|ad|ce|years?)?\b`)
	bareYearRe  = regexp.MustCompile(`\b` + yearNumber + `\s*(bc|bce|ad|ce)\b|\b(ad|ce)\s+(\d+)\b`)
	centuryRe   = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)\s+century\s*(bc|bce|ad|ce)?\b`)
	radiusRe    = regexp.MustCompile(`\b(?:within\s+)?(\d+(?:\.\d+)?)\s*(km|kms|kilometers|kilometres|mi|miles?)\b`)
	tokenRe     = regexp.MustCompile(`[\p{L}\p{N}]+(?:['-][\p{L}\p{N}]+)*`)
)

// phraseMatcher matches a table alias on word boundaries, allowing plurals
type phraseMatcher struct {
	phrase string
	re     *regexp.Regexp
}

func newPhraseMatcher(phrase string) phraseMatcher {
	var expr string
	if strings.HasSuffix(phrase, "y") {
		expr = `\b` + regexp.QuoteMeta(strings.TrimSuffix(phrase, "y")) + `(?:y|ys|ies)\b`
	} else {
		expr = `\b` + regexp.QuoteMeta(phrase) + `(?:s|es)?\b`
	}
	return phraseMatcher{phrase: phrase, re: regexp.MustCompile(expr)}
}

func (m phraseMatcher) in(text string) bool {
	return m.re.MatchString(text)
}

func matchers(phrases []string) []phraseMatcher {
	out := make([]phraseMatcher, len(phrases))
	for i, p := range phrases {
		out[i] = newPhraseMatcher(p)
	}
	return out
}

// compiledTables is built once from parser_tables.go and never mutated
type compiledTables struct {
	highlight []phraseMatcher
	sources   [][]phraseMatcher
	features  [][]phraseMatcher
	periods   [][]phraseMatcher
	regions   [][]phraseMatcher
	countries []phraseMatcher
	siteTypes []phraseMatcher
	consumed  map[string]bool
}

var tables = compileTables()

func compileTables() *compiledTables {
	t := &compiledTables{
		highlight: matchers(highlightVerbs),
		consumed:  make(map[string]bool),
	}
	var all [][]string
	all = append(all, highlightVerbs)
	for _, s := range sourceAliases {
		t.sources = append(t.sources, matchers(s.aliases))
		all = append(all, s.aliases)
	}
	for _, f := range featureAliases {
		t.features = append(t.features, matchers(f.aliases))
		all = append(all, f.aliases)
	}
	for _, p := range namedPeriods {
		t.periods = append(t.periods, matchers(p.aliases))
		all = append(all, p.aliases)
	}
	for _, r := range namedRegions {
		t.regions = append(t.regions, matchers(r.aliases))
		all = append(all, r.aliases)
	}
	for _, c := range countryAliases {
		t.countries = append(t.countries, newPhraseMatcher(c.alias))
		all = append(all, []string{c.alias})
	}
	for _, s := range siteTypeKeywords {
		t.siteTypes = append(t.siteTypes, newPhraseMatcher(s.keyword))
		all = append(all, []string{s.keyword})
	}

	for _, group := range all {
		for _, phrase := range group {
			for _, w := range tokenRe.FindAllString(phrase, -1) {
				t.consumed[w] = true
				t.consumed[w+"s"] = true
				t.consumed[w+"es"] = true
				if strings.HasSuffix(w, "y") {
					t.consumed[strings.TrimSuffix(w, "y")+"ies"] = true
				}
			}
		}
	}
	return t
}

func firstMatch(groups [][]phraseMatcher, text string) int {
	for i, group := range groups {
		for _, m := range group {
			if m.in(text) {
				return i
			}
		}
	}
	return -1
}

// QueryParser extracts structured filters and leftover search terms.
// Parse is a pure function of its input.
type QueryParser struct{}

// NewQueryParser creates a parser
func NewQueryParser() *QueryParser {
	return &QueryParser{}
}

// Parse runs every extraction pass over the lowercased query and merges the
// results. Filters are not normalised here; the search layer does that.
func (p *QueryParser) Parse(query string) domain.QueryIntent {
	text := strings.ToLower(strings.TrimSpace(query))
	intent := domain.QueryIntent{RawQuery: query}

	p.parseHighlight(text, &intent)
	p.parseSource(text, &intent)
	p.parseFeature(text, &intent)
	p.parsePeriod(text, &intent)
	p.parseYears(text, &intent)
	p.parseRegion(text, &intent)
	p.parseSiteTypes(text, &intent)
	intent.SearchTerms = searchTerms(text)

	return intent
}

func (p *QueryParser) parseHighlight(text string, intent *domain.QueryIntent) {
	for _, m := range tables.highlight {
		if m.in(text) {
			intent.WantsHighlight = true
			return
		}
	}
}

func (p *QueryParser) parseSource(text string, intent *domain.QueryIntent) {
	if i := firstMatch(tables.sources, text); i >= 0 {
		intent.SourceIDs = append([]string(nil), sourceAliases[i].ids...)
	}
}

func (p *QueryParser) parseFeature(text string, intent *domain.QueryIntent) {
	i := firstMatch(tables.features, text)
	if i < 0 {
		return
	}
	intent.FeatureType = featureAliases[i].featureType
	intent.FeatureRadiusKm = defaultFeatureRadiusKm

	m := radiusRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	dist, err := strconv.ParseFloat(m[1], 64)
	if err != nil || dist <= 0 {
		return
	}
	if strings.HasPrefix(m[2], "mi") {
		dist *= domain.KmPerMile
	}
	intent.FeatureRadiusKm = dist
}

func (p *QueryParser) parsePeriod(text string, intent *domain.QueryIntent) {
	i := firstMatch(tables.periods, text)
	if i < 0 {
		return
	}
	period := namedPeriods[i]
	intent.PeriodName = period.name
	intent.Filters.PeriodStartMin = domain.IntPtr(period.start)
	intent.Filters.PeriodEndMax = domain.IntPtr(period.end)
}

// parseYears applies explicit constraints, which override a named period's
// bound on the same key. A bare year or century only applies when no period
// bound exists at all.
func (p *QueryParser) parseYears(text string, intent *domain.QueryIntent) {
	f := &intent.Filters

	if m := olderThanRe.FindStringSubmatch(text); m != nil {
		if y, ok := yearValue(m[1], m[2], strings.HasPrefix(m[0], "older")); ok {
			f.PeriodStartMax = domain.IntPtr(y)
		}
	}
	if m := newerThanRe.FindStringSubmatch(text); m != nil {
		yearsAgo := strings.HasPrefix(m[0], "newer") || strings.HasPrefix(m[0], "younger")
		if y, ok := yearValue(m[1], m[2], yearsAgo); ok {
			f.PeriodStartMin = domain.IntPtr(y)
		}
	}

	if f.HasPeriodBound() {
		return
	}
	if m := centuryRe.FindStringSubmatch(text); m != nil {
		c, err := strconv.Atoi(m[1])
		if err == nil && c > 0 {
			lo, hi := (c-1)*100, c*100-1
			if m[2] == "bc" || m[2] == "bce" {
				lo, hi = -c*100, -(c-1)*100-1
			}
			f.PeriodStartMin = domain.IntPtr(lo)
			f.PeriodStartMax = domain.IntPtr(hi)
			return
		}
	}
	if m := bareYearRe.FindStringSubmatch(text); m != nil {
		var y int
		var ok bool
		if m[1] != "" {
			y, ok = yearValue(m[1], m[2], false)
		} else {
			y, ok = yearValue(m[4], m[3], false)
		}
		if ok {
			f.PeriodStartMin = domain.IntPtr(y - bareYearWindow)
			f.PeriodStartMax = domain.IntPtr(y + bareYearWindow)
		}
	}
}

// yearValue converts a matched number and suffix into a signed year.
// Without a suffix the number is read as years before present when
// yearsAgo is set, otherwise as a calendar year.
func yearValue(number, suffix string, yearsAgo bool) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(number, ",", ""))
	if err != nil {
		return 0, false
	}
	switch suffix {
	case "bc", "bce":
		return -n, true
	case "ad", "ce":
		return n, true
	case "year", "years":
		return presentYear - n, true
	}
	if yearsAgo {
		return presentYear - n, true
	}
	return n, true
}

func (p *QueryParser) parseRegion(text string, intent *domain.QueryIntent) {
	if i := firstMatch(tables.regions, text); i >= 0 {
		region := namedRegions[i]
		bbox := region.bbox
		intent.RegionName = region.name
		intent.Filters.BBox = &bbox
	}
	for i, m := range tables.countries {
		if m.in(text) {
			intent.Filters.CountryContains = countryAliases[i].country
			return
		}
	}
}

// parseSiteTypes accumulates the union of every matching keyword's types
func (p *QueryParser) parseSiteTypes(text string, intent *domain.QueryIntent) {
	seen := make(map[string]bool)
	for i, m := range tables.siteTypes {
		if !m.in(text) {
			continue
		}
		for _, t := range siteTypeKeywords[i].types {
			if !seen[t] {
				seen[t] = true
				intent.SiteTypes = append(intent.SiteTypes, t)
			}
		}
	}
	if len(intent.SiteTypes) > 0 {
		intent.Filters.SiteTypes = append([]string(nil), intent.SiteTypes...)
	}
}

// searchTerms keeps words that are neither stop words, numbers nor table
// keywords, in order and without repeats.
func searchTerms(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range tokenRe.FindAllString(text, -1) {
		if stopWords[w] || tables.consumed[w] || seen[w] || isNumber(w) {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func isNumber(w string) bool {
	_, err := strconv.Atoi(w)
	return err == nil
}
