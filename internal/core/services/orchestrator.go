package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driving"
	"github.com/custodia-labs/atlas-core/internal/runtime"
)

// Ensure Orchestrator implements the driving ports
var (
	_ driving.ChatService   = (*Orchestrator)(nil)
	_ driving.QueryAnalyzer = (*Orchestrator)(nil)
)

// Fallback stages reported to metrics
const (
	stageResolve    = "resolve"
	stageWebSearch  = "web_search"
	stageSearch     = "search"
	stageFetch      = "fetch"
	stageGeneration = "generation"
)

// OrchestratorConfig holds configuration for the answer pipeline
type OrchestratorConfig struct {
	Services   *runtime.Services // Dynamic LLM service
	Search     driving.SearchService
	Store      driven.SiteStore
	WebSearch  driven.WebSearcher // optional
	Classifier *QueryClassifier
	Parser     *QueryParser
	Context    *ContextBuilder
	Resolver   *ReferenceResolver
	Metrics    driven.MetricsRecorder
	Logger     *slog.Logger

	GenerationTimeout time.Duration // default 120s
	WebSearchTimeout  time.Duration // default 10s
	FetchTimeout      time.Duration // default 5s
	WebResults        int           // default 5
	SearchLimit       int           // default 20
	MaxTokens         int           // default 1024
	Temperature       float64

	// LiveTokens forwards backend chunks as they arrive instead of
	// generating the whole answer first.
	LiveTokens bool

	Now func() time.Time
}

// Orchestrator sequences classification, retrieval and generation for one
// question and streams the answer.
type Orchestrator struct {
	services   *runtime.Services
	search     driving.SearchService
	store      driven.SiteStore
	web        driven.WebSearcher
	classifier *QueryClassifier
	parser     *QueryParser
	context    *ContextBuilder
	resolver   *ReferenceResolver
	metrics    driven.MetricsRecorder
	logger     *slog.Logger

	generationTimeout time.Duration
	webSearchTimeout  time.Duration
	fetchTimeout      time.Duration
	webResults        int
	searchLimit       int
	maxTokens         int
	temperature       float64
	liveTokens        bool
	now               func() time.Time
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = driven.NopMetrics{}
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewQueryClassifier()
	}
	if cfg.Parser == nil {
		cfg.Parser = NewQueryParser()
	}
	if cfg.Context == nil {
		cfg.Context = NewContextBuilder(nil, 0)
	}
	if cfg.Resolver == nil {
		cfg.Resolver = NewReferenceResolver(0, cfg.Logger)
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 120 * time.Second
	}
	if cfg.WebSearchTimeout <= 0 {
		cfg.WebSearchTimeout = 10 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.WebResults <= 0 {
		cfg.WebResults = 5
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = domain.DefaultHighlightLimit
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		services:          cfg.Services,
		search:            cfg.Search,
		store:             cfg.Store,
		web:               cfg.WebSearch,
		classifier:        cfg.Classifier,
		parser:            cfg.Parser,
		context:           cfg.Context,
		resolver:          cfg.Resolver,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger.With("component", "orchestrator"),
		generationTimeout: cfg.GenerationTimeout,
		webSearchTimeout:  cfg.WebSearchTimeout,
		fetchTimeout:      cfg.FetchTimeout,
		webResults:        cfg.WebResults,
		searchLimit:       cfg.SearchLimit,
		maxTokens:         cfg.MaxTokens,
		temperature:       cfg.Temperature,
		liveTokens:        cfg.LiveTokens,
		now:               cfg.Now,
	}
}

// Analyze classifies and parses a query without searching
func (o *Orchestrator) Analyze(query string) domain.QueryAnalysis {
	return domain.QueryAnalysis{
		Query:          query,
		Classification: o.classifier.Classify(query),
		Intent:         o.parser.Parse(query),
	}
}

// run carries per-request state through the pipeline
type run struct {
	req   domain.ChatRequest
	query string
	llm   driven.LLMService
	model string
	meta  domain.DoneMetadata
	emit  func(domain.StreamEvent) error

	// streamed is set once a token has been sent
	streamed bool
	answer   strings.Builder
}

func (r *run) send(ev domain.StreamEvent) error {
	if ev.Type == domain.EventToken {
		r.streamed = true
		r.answer.WriteString(ev.Token)
	}
	return r.emit(ev)
}

// Stream answers one question. Backend failures become fallback text; the
// only errors returned are invalid input, emit failures and cancellation.
func (o *Orchestrator) Stream(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamEvent) error) error {
	start := o.now()
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	ctx, span := tracer.Start(ctx, "orchestrator.Stream")
	defer span.End()

	r := &run{req: req, query: query, emit: emit}
	if o.services != nil {
		r.llm = o.services.LLMService()
	}
	r.model = o.resolveModel(ctx, r.llm, req.Model)
	r.meta.Model = r.model
	if r.meta.Model == "" && r.llm != nil {
		r.meta.Model = r.llm.Model()
	}

	// ResolveContext
	if ref := o.resolver.Resolve(ctx, r.llm, query, req.LastAssistantTurn()); ref != "" {
		r.query = query + " " + ref
		r.meta.ResolvedReference = ref
		o.logger.Debug("resolved reference", "reference", ref)
	}

	// Classify
	cls := o.classifier.Classify(r.query)
	r.meta.Intent = cls.Intent
	r.meta.Confidence = cls.Confidence
	r.meta.Reason = cls.Reason
	r.meta.SearchHint = cls.SearchHint
	r.meta.IsSuperlative = cls.IsSuperlative
	o.metrics.IncQuery(string(cls.Intent))
	span.SetAttributes(attribute.String("query.intent", string(cls.Intent)), attribute.Float64("query.confidence", cls.Confidence))

	var (
		sites []*domain.Site
		err   error
	)
	if cls.Intent == domain.IntentKnowledge {
		err = o.knowledgePath(ctx, r)
	} else {
		sites, err = o.databasePath(ctx, r, cls)
	}
	if err != nil {
		return err
	}

	// EmitSites
	if len(sites) > 0 {
		ordered, mentioned := orderHighlights(sites, r.answer.String())
		if limit := cls.HighlightLimit(); len(ordered) > limit {
			ordered = ordered[:limit]
		}
		markers := make([]domain.SiteMarker, 0, len(ordered))
		for _, s := range ordered {
			markers = append(markers, s.Marker())
		}
		r.meta.HighlightCount = len(markers)
		o.logger.Debug("emitting sites", "sites", len(sites), "mentioned", mentioned, "highlighted", len(markers))
		if err := r.send(domain.SitesEvent(markers)); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	r.meta.ElapsedMillis = o.now().Sub(start).Milliseconds()
	span.SetAttributes(attribute.Bool("answer.fallback", r.meta.Fallback), attribute.Int("answer.results", r.meta.ResultCount))
	return r.send(domain.DoneEvent(r.meta))
}

// knowledgePath answers from web snippets, or from the model alone
func (o *Orchestrator) knowledgePath(ctx context.Context, r *run) error {
	if o.web != nil {
		if err := r.send(domain.StatusEvent("Searching the web")); err != nil {
			return err
		}
		if results := o.webSearch(ctx, r.query); len(results) > 0 {
			block := o.context.BuildSnippets(results)
			for _, res := range results[:block.Included] {
				r.meta.Sources = append(r.meta.Sources, res.URL)
			}
			req := domain.GenerateRequest{
				Prompt:       groundedPrompt(r.query, block),
				SystemPrompt: knowledgeSystemPrompt + "\n\n" + groundedInstruction,
			}
			ok, err := o.generate(ctx, r, req)
			if err != nil || ok {
				r.meta.Grounded = ok
				return err
			}
			if r.streamed {
				return o.finishBroken(r)
			}
			r.meta.Sources = nil
		}
	}

	req := domain.GenerateRequest{
		Prompt:       knowledgePrompt(r.query, r.req.History),
		SystemPrompt: knowledgeSystemPrompt + "\n\n" + ungroundedInstruction,
	}
	ok, err := o.generate(ctx, r, req)
	if err != nil {
		return err
	}
	if !ok {
		if r.streamed {
			return o.finishBroken(r)
		}
		r.meta.Fallback = true
		return o.streamText(ctx, r, apologyAnswer)
	}
	return nil
}

func (o *Orchestrator) webSearch(ctx context.Context, query string) []domain.WebSearchResult {
	ctx, cancel := context.WithTimeout(ctx, o.webSearchTimeout)
	defer cancel()
	resp, err := o.web.Search(ctx, query, o.webResults, "general")
	if err != nil || resp == nil || !resp.Success || len(resp.Results) == 0 {
		o.metrics.IncFallback(stageWebSearch)
		if err != nil {
			o.logger.Warn("web search failed", "error", err)
		}
		return nil
	}
	return resp.Results
}

// databasePath searches the catalog and answers from the matching records
func (o *Orchestrator) databasePath(ctx context.Context, r *run, cls domain.ClassificationResult) ([]*domain.Site, error) {
	if err := r.send(domain.StatusEvent("Searching archaeological sites")); err != nil {
		return nil, err
	}

	intent := o.parser.Parse(r.query)
	sources := r.req.Sources
	if len(intent.SourceIDs) > 0 {
		sources = intent.SourceIDs
	}

	var (
		results []domain.SearchResult
		err     error
	)
	if intent.FeatureType != "" {
		results, err = o.search.SearchNearFeature(ctx, intent.FeatureType, sources, intent.FeatureRadiusKm, o.searchLimit)
	} else {
		results, err = o.search.Search(ctx, intent.SemanticQuery(), domain.SearchOptions{
			Sources: sources,
			Filters: intent.Filters,
			Limit:   o.searchLimit,
		})
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.metrics.IncFallback(stageSearch)
		o.logger.Warn("site search failed", "error", err)
		r.meta.Fallback = true
		return nil, o.streamText(ctx, r, apologyAnswer)
	}

	r.meta.ResultCount = len(results)
	r.meta.Sources = collectionsOf(results)
	if len(results) == 0 {
		return nil, o.streamText(ctx, r, noResultsAnswer)
	}

	sites := o.fetchSites(ctx, results)
	block := o.context.BuildSites(sites)
	req := domain.GenerateRequest{
		Prompt:       databasePrompt(r.query, block),
		SystemPrompt: databaseSystemPrompt,
	}
	ok, err := o.generate(ctx, r, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		if r.streamed {
			return sites, o.finishBroken(r)
		}
		r.meta.Fallback = true
		if err := o.streamText(ctx, r, templateAnswer(sites, cls.IsSuperlative)); err != nil {
			return nil, err
		}
	}
	return sites, nil
}

// fetchSites loads authoritative records in rank order. Hits missing from
// the store, or every hit when the store fails, are built from the result.
func (o *Orchestrator) fetchSites(ctx context.Context, results []domain.SearchResult) []*domain.Site {
	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.SiteID
	}

	byID := make(map[string]*domain.Site, len(ids))
	if o.store != nil {
		fctx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
		records, err := o.store.FetchByIDs(fctx, ids)
		cancel()
		if err != nil {
			o.metrics.IncFallback(stageFetch)
			o.logger.Warn("record fetch failed, using search payloads", "error", err)
		}
		for _, s := range records {
			byID[s.ID] = s
		}
	}

	sites := make([]*domain.Site, 0, len(results))
	for _, res := range results {
		s, ok := byID[res.SiteID]
		if !ok {
			sites = append(sites, domain.SiteFromResult(res))
			continue
		}
		cp := *s
		cp.NearFeature = res.NearFeature
		cp.FeatureType = res.FeatureType
		sites = append(sites, &cp)
	}
	return sites
}

// generate produces an answer and streams it. ok is false when the backend
// failed; err is only set for emit failures and cancellation.
func (o *Orchestrator) generate(ctx context.Context, r *run, req domain.GenerateRequest) (bool, error) {
	if r.llm == nil {
		o.metrics.IncFallback(stageGeneration)
		return false, nil
	}
	if err := r.send(domain.StatusEvent("Generating answer")); err != nil {
		return false, err
	}

	req.Model = r.model
	req.MaxTokens = o.maxTokens
	if r.req.MaxTokens > 0 && r.req.MaxTokens < o.maxTokens {
		req.MaxTokens = r.req.MaxTokens
	}
	req.Temperature = o.temperature

	gctx, cancel := context.WithTimeout(ctx, o.generationTimeout)
	defer cancel()
	start := time.Now()
	defer func() { o.metrics.ObserveGeneration(time.Since(start)) }()

	if o.liveTokens {
		var frag fragmenter
		var emitErr error
		err := r.llm.GenerateStream(gctx, req, func(chunk string) error {
			for _, f := range frag.feed(chunk) {
				if emitErr = r.send(domain.TokenEvent(f)); emitErr != nil {
					return emitErr
				}
			}
			return nil
		})
		if emitErr != nil {
			return false, emitErr
		}
		if err == nil {
			if rest := frag.flush(); rest != "" {
				if err := r.send(domain.TokenEvent(rest)); err != nil {
					return false, err
				}
			}
			if r.streamed {
				return true, nil
			}
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		o.metrics.IncFallback(stageGeneration)
		o.logger.Warn("generation failed", "error", err, "partial", r.streamed)
		return false, nil
	}

	text, err := r.llm.Generate(gctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: empty generation", domain.ErrBackendUnavailable)
	}
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		o.metrics.IncFallback(stageGeneration)
		o.logger.Warn("generation failed", "error", err)
		return false, nil
	}
	return true, o.streamText(ctx, r, strings.TrimSpace(text))
}

// finishBroken closes an answer whose backend stream died midway
func (o *Orchestrator) finishBroken(r *run) error {
	r.meta.Fallback = true
	return r.send(domain.TokenEvent("\n\n" + apologyAnswer))
}

// streamText emits text as word-level fragments in order
func (o *Orchestrator) streamText(ctx context.Context, r *run, text string) error {
	for _, f := range wordFragments(text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.send(domain.TokenEvent(f)); err != nil {
			return err
		}
	}
	return nil
}

// resolveModel accepts a requested model only if the backend lists it
func (o *Orchestrator) resolveModel(ctx context.Context, llm driven.LLMService, requested string) string {
	requested = strings.TrimSpace(requested)
	if llm == nil || requested == "" {
		return ""
	}
	models, err := llm.ListModels(ctx)
	if err != nil {
		o.logger.Warn("listing models failed, using default", "error", err)
		return ""
	}
	for _, m := range models {
		if m == requested {
			return requested
		}
	}
	o.logger.Info("unknown model requested, using default", "model", requested)
	return ""
}

// orderHighlights moves sites named in the answer to the front, in the order
// the answer mentions them. It returns the reordered list and how many were named.
func orderHighlights(sites []*domain.Site, answer string) ([]*domain.Site, int) {
	lower := strings.ToLower(answer)
	type mention struct {
		site *domain.Site
		at   int
	}
	var named []mention
	var rest []*domain.Site
	for _, s := range sites {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			rest = append(rest, s)
			continue
		}
		if at := strings.Index(lower, name); at >= 0 {
			named = append(named, mention{site: s, at: at})
		} else {
			rest = append(rest, s)
		}
	}
	// insertion sort keeps rank order for equal positions
	for i := 1; i < len(named); i++ {
		for j := i; j > 0 && named[j].at < named[j-1].at; j-- {
			named[j], named[j-1] = named[j-1], named[j]
		}
	}
	out := make([]*domain.Site, 0, len(sites))
	for _, m := range named {
		out = append(out, m.site)
	}
	return append(out, rest...), len(named)
}

func collectionsOf(results []domain.SearchResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range results {
		if !seen[r.CollectionID] {
			seen[r.CollectionID] = true
			out = append(out, r.CollectionID)
		}
	}
	return out
}

// wordFragments splits text after each run of whitespace, so that joining the
// fragments reproduces text exactly.
func wordFragments(text string) []string {
	var out []string
	start := 0
	inSpace, seenWord := false, false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if inSpace && !space && seenWord {
			out = append(out, text[start:i])
			start = i
		}
		if !space {
			seenWord = true
		}
		inSpace = space
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

// fragmenter re-splits arbitrary backend chunks into word fragments
type fragmenter struct {
	pending string
}

func (f *fragmenter) feed(chunk string) []string {
	parts := wordFragments(f.pending + chunk)
	if len(parts) == 0 {
		f.pending = ""
		return nil
	}
	last := parts[len(parts)-1]
	f.pending = last
	return parts[:len(parts)-1]
}

func (f *fragmenter) flush() string {
	rest := f.pending
	f.pending = ""
	return rest
}
