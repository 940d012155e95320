package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driving"
	"github.com/custodia-labs/atlas-core/internal/runtime"
)

// Ensure searchEngine implements SearchService
var _ driving.SearchService = (*searchEngine)(nil)

var tracer = otel.Tracer("github.com/custodia-labs/atlas-core/internal/core/services")

// SearchConfig holds configuration for the search engine
type SearchConfig struct {
	Services *runtime.Services // Dynamic embedding service
	Index    driven.VectorIndex
	Store    driven.SiteStore
	Metrics  driven.MetricsRecorder
	Logger   *slog.Logger

	// CollectionTimeout bounds each per-collection call (default 5s)
	CollectionTimeout time.Duration
	// MaxFeatures caps how many features a proximity search loads (default 200)
	MaxFeatures int
	// FeatureParallelism bounds concurrent geo scrolls (default 8)
	FeatureParallelism int
	DefaultLimit       int
	MaxLimit           int
}

// searchEngine fans a query out across site collections and merges the hits
type searchEngine struct {
	services *runtime.Services
	index    driven.VectorIndex
	store    driven.SiteStore
	metrics  driven.MetricsRecorder
	logger   *slog.Logger

	collectionTimeout  time.Duration
	maxFeatures        int
	featureParallelism int
	defaultLimit       int
	maxLimit           int
}

// NewSearchEngine creates a new SearchService
func NewSearchEngine(cfg SearchConfig) driving.SearchService {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = driven.NopMetrics{}
	}
	if cfg.CollectionTimeout <= 0 {
		cfg.CollectionTimeout = 5 * time.Second
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 200
	}
	if cfg.FeatureParallelism <= 0 {
		cfg.FeatureParallelism = 8
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &searchEngine{
		services:           cfg.Services,
		index:              cfg.Index,
		store:              cfg.Store,
		metrics:            cfg.Metrics,
		logger:             cfg.Logger.With("component", "search"),
		collectionTimeout:  cfg.CollectionTimeout,
		maxFeatures:        cfg.MaxFeatures,
		featureParallelism: cfg.FeatureParallelism,
		defaultLimit:       cfg.DefaultLimit,
		maxLimit:           cfg.MaxLimit,
	}
}

// Search runs a semantic query against every resolved site collection.
// Failed collections are skipped. When nothing comes back the authoritative
// store is scanned by keyword instead.
func (s *searchEngine) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearch(time.Since(start)) }()

	ctx, span := tracer.Start(ctx, "search.Search")
	defer span.End()

	limit := s.clampLimit(opts.Limit)
	collections := s.resolveSources(ctx, opts.Sources, domain.CollectionSites)
	filter := BuildIndexFilter(opts.Filters)
	span.SetAttributes(attribute.Int("search.collections", len(collections)), attribute.Int("search.limit", limit))

	var (
		results       []domain.SearchResult
		vectorFailed  bool
		vectorSkipped bool
	)

	vector, err := s.embed(ctx, query)
	if err != nil {
		vectorSkipped = true
		s.logger.Warn("query embedding unavailable, using keyword scan", "error", err)
	} else {
		results, vectorFailed = s.fanOut(ctx, collections, vector, filter, limit)
	}

	if len(results) == 0 {
		fallback, err := s.keywordFallback(ctx, query, collections, filter, limit)
		if err != nil {
			if vectorSkipped || vectorFailed {
				span.RecordError(err)
				span.SetStatus(codes.Error, "search unavailable")
				return nil, fmt.Errorf("%w: keyword scan: %v", domain.ErrBackendUnavailable, err)
			}
			s.logger.Warn("keyword fallback failed", "error", err)
			return []domain.SearchResult{}, nil
		}
		span.SetAttributes(attribute.Bool("search.keyword_fallback", true))
		return fallback, nil
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}

func (s *searchEngine) embed(ctx context.Context, query string) ([]float32, error) {
	if s.services == nil {
		return nil, fmt.Errorf("%w: no embedding service", domain.ErrBackendUnavailable)
	}
	svc := s.services.EmbeddingService()
	if svc == nil {
		return nil, fmt.Errorf("%w: no embedding service", domain.ErrBackendUnavailable)
	}
	return svc.EmbedQuery(ctx, query)
}

type collectionHits struct {
	collection domain.Collection
	hits       []domain.IndexHit
	err        error
}

// fanOut queries every collection in parallel, each under its own timeout.
// allFailed is true when every collection errored.
func (s *searchEngine) fanOut(ctx context.Context, collections []domain.Collection, vector []float32, filter domain.IndexFilter, limit int) ([]domain.SearchResult, bool) {
	if len(collections) == 0 {
		return nil, false
	}

	slots := make([]collectionHits, len(collections))
	var wg sync.WaitGroup
	for i, c := range collections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.collectionTimeout)
			defer cancel()
			cctx, span := tracer.Start(cctx, "search.collection",
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attribute.String("search.collection", c.ID)))
			defer span.End()
			hits, err := s.index.Query(cctx, c.ID, vector, filter, limit)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "collection failed")
			}
			slots[i] = collectionHits{collection: c, hits: hits, err: err}
		}()
	}
	wg.Wait()

	var merged []domain.SearchResult
	var failed []string
	for _, slot := range slots {
		if slot.err != nil {
			failed = append(failed, slot.collection.ID)
			s.metrics.IncCollectionFailure(slot.collection.ID)
			s.logger.Warn("collection query failed", "collection", slot.collection.ID, "error", slot.err)
			continue
		}
		for _, h := range slot.hits {
			merged = append(merged, resultFromHit(h, slot.collection, h.Score))
		}
	}
	if len(failed) > 0 {
		err := fmt.Errorf("%w: %s", domain.ErrPartialSearchFailure, strings.Join(failed, ", "))
		s.logger.Warn("search degraded", "failed", len(failed), "total", len(collections), "error", err)
	}

	merged = domain.DedupeBySiteID(merged)
	domain.SortByWeightedScore(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, len(failed) == len(collections)
}

// keywordFallback scans the site store with the query words. Results are
// unweighted and keep the store's source priority order.
func (s *searchEngine) keywordFallback(ctx context.Context, query string, collections []domain.Collection, filter domain.IndexFilter, limit int) ([]domain.SearchResult, error) {
	terms := keywordTerms(query)
	if len(terms) == 0 || s.store == nil {
		return []domain.SearchResult{}, nil
	}

	allowed := make(map[string]domain.Collection, len(collections))
	for _, c := range collections {
		allowed[c.ID] = c
	}

	sites, err := s.store.KeywordScan(ctx, terms, limit*3)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SearchResult, 0, limit)
	seen := make(map[string]bool)
	for _, site := range sites {
		c, ok := allowed[site.Source]
		if !ok || seen[site.ID] || !filter.Matches(hitFromSite(site)) {
			continue
		}
		seen[site.ID] = true
		r := resultFromHit(hitFromSite(site), c, 0)
		r.WeightedScore = 0
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// SearchNearFeature finds sites within radiusKm of any feature of the given
// type. Results are ranked by proximity, then collection weight.
func (s *searchEngine) SearchNearFeature(ctx context.Context, featureType string, sources []string, radiusKm float64, limit int) ([]domain.SearchResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSearch(time.Since(start)) }()

	ctx, span := tracer.Start(ctx, "search.SearchNearFeature")
	defer span.End()
	span.SetAttributes(attribute.String("search.feature_type", featureType))

	fc, ok := domain.FeatureCollection(featureType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown feature type %q", domain.ErrInvalidInput, featureType)
	}
	if radiusKm <= 0 {
		radiusKm = defaultFeatureRadiusKm
	}
	limit = s.clampLimit(limit)

	fctx, cancel := context.WithTimeout(ctx, s.collectionTimeout)
	features, err := s.index.Scroll(fctx, fc.ID, domain.IndexFilter{}, s.maxFeatures)
	cancel()
	if err != nil {
		s.metrics.IncCollectionFailure(fc.ID)
		span.RecordError(err)
		return nil, fmt.Errorf("%w: load %s: %v", domain.ErrBackendUnavailable, fc.ID, err)
	}

	collections := s.resolveSources(ctx, sources, domain.CollectionSites)
	type job struct {
		feature    domain.IndexHit
		collection domain.Collection
	}
	var jobs []job
	for _, f := range features {
		for _, c := range collections {
			jobs = append(jobs, job{feature: f, collection: c})
		}
	}

	slots := make([][]domain.SearchResult, len(jobs))
	sem := make(chan struct{}, s.featureParallelism)
	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
		failed = make(map[string]int)
	)
	for i, j := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			geo := &domain.GeoRadius{Lat: j.feature.Lat, Lon: j.feature.Lon, RadiusKm: radiusKm}
			cctx, cancel := context.WithTimeout(ctx, s.collectionTimeout)
			defer cancel()
			hits, err := s.index.Scroll(cctx, j.collection.ID, domain.IndexFilter{Geo: geo}, limit)
			if err != nil {
				failMu.Lock()
				failed[j.collection.ID]++
				failMu.Unlock()
				return
			}
			for _, h := range hits {
				d := domain.HaversineKm(j.feature.Lat, j.feature.Lon, h.Lat, h.Lon)
				proximity := 1 - d/radiusKm
				if proximity < 0 {
					proximity = 0
				}
				r := resultFromHit(h, j.collection, proximity)
				r.NearFeature = j.feature.Name
				r.FeatureType = fc.FeatureType
				slots[i] = append(slots[i], r)
			}
		}()
	}
	wg.Wait()

	for id, n := range failed {
		s.metrics.IncCollectionFailure(id)
		s.logger.Warn("geo scroll failed", "collection", id, "calls", n)
	}

	var merged []domain.SearchResult
	for _, slot := range slots {
		merged = append(merged, slot...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].RawScore != merged[j].RawScore {
			return merged[i].RawScore > merged[j].RawScore
		}
		return domain.QualityWeight(merged[i].CollectionID) > domain.QualityWeight(merged[j].CollectionID)
	})
	merged = domain.DedupeBySiteID(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	s.logger.Debug("feature search complete",
		"feature_type", featureType,
		"features", len(features),
		"collections", len(collections),
		"results", len(merged),
	)
	span.SetAttributes(attribute.Int("search.features", len(features)), attribute.Int("search.results", len(merged)))
	return merged, nil
}

// Collections lists catalog collections that exist in the index
func (s *searchEngine) Collections(ctx context.Context) ([]domain.Collection, error) {
	existing, err := s.index.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list collections: %v", domain.ErrBackendUnavailable, err)
	}
	present := make(map[string]bool, len(existing))
	for _, id := range existing {
		present[id] = true
	}
	out := make([]domain.Collection, 0, len(domain.Catalog))
	for _, c := range domain.Catalog {
		if present[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

// resolveSources intersects the requested sources with the catalog and the
// collections that actually exist. nil or "all" selects every collection of
// kind. The result is ordered by quality weight, highest first.
func (s *searchEngine) resolveSources(ctx context.Context, sources []string, kind domain.CollectionKind) []domain.Collection {
	present, err := s.index.Collections(ctx)
	var exists map[string]bool
	if err != nil {
		s.logger.Warn("listing collections failed, assuming catalog", "error", err)
	} else {
		exists = make(map[string]bool, len(present))
		for _, id := range present {
			exists[id] = true
		}
	}

	all := len(sources) == 0
	wanted := make(map[string]bool, len(sources))
	for _, src := range sources {
		src = strings.ToLower(strings.TrimSpace(src))
		if src == "all" {
			all = true
		}
		wanted[src] = true
	}

	var out []domain.Collection
	for _, c := range domain.Catalog {
		if c.Kind != kind {
			continue
		}
		if exists != nil && !exists[c.ID] {
			continue
		}
		if all || wanted[c.ID] {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].QualityWeight > out[j].QualityWeight })
	return out
}

func (s *searchEngine) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// BuildIndexFilter translates parsed filters into the index filter.
// Site types outside the stored vocabulary are dropped.
func BuildIndexFilter(f domain.Filters) domain.IndexFilter {
	f = f.Normalize()
	out := domain.IndexFilter{
		PeriodStartGTE:  f.PeriodStartMin,
		PeriodStartLTE:  f.PeriodStartMax,
		PeriodEndLTE:    f.PeriodEndMax,
		BBox:            f.BBox,
		CountryContains: strings.TrimSpace(f.CountryContains),
	}
	seen := make(map[string]bool)
	for _, t := range f.SiteTypes {
		t = domain.NormalizeSiteType(t)
		if !domain.ValidSiteTypes[t] || seen[t] {
			continue
		}
		seen[t] = true
		out.SiteTypes = append(out.SiteTypes, t)
	}
	return out
}

func resultFromHit(h domain.IndexHit, c domain.Collection, score float64) domain.SearchResult {
	return domain.SearchResult{
		SiteID:        h.ID,
		RawScore:      score,
		WeightedScore: score * c.QualityWeight,
		CollectionID:  c.ID,
		Name:          h.Name,
		SiteType:      h.SiteType,
		PeriodName:    h.PeriodName,
		Country:       h.Country,
		Description:   h.Description,
		Lat:           h.Lat,
		Lon:           h.Lon,
	}
}

func hitFromSite(site *domain.Site) domain.IndexHit {
	return domain.IndexHit{
		ID:          site.ID,
		Name:        site.Name,
		SiteType:    site.SiteType,
		PeriodName:  site.PeriodName,
		PeriodStart: site.PeriodStart,
		PeriodEnd:   site.PeriodEnd,
		Country:     site.Country,
		Description: site.Description,
		Lat:         site.Lat,
		Lon:         site.Lon,
	}
}

// keywordTerms keeps the query words a keyword scan can use
func keywordTerms(query string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range tokenRe.FindAllString(strings.ToLower(query), -1) {
		if utf8.RuneCountInString(w) < 3 || stopWords[w] || isNumber(w) {
			continue
		}
		if utf8.RuneCountInString(w) > 4 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
			w = w[:len(w)-1]
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
