package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/atlas-core/internal/adapters/driven/ai"
	"github.com/custodia-labs/atlas-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/atlas-core/internal/adapters/driven/memory"
	"github.com/custodia-labs/atlas-core/internal/adapters/driven/pgvector"
	"github.com/custodia-labs/atlas-core/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/atlas-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/atlas-core/internal/adapters/driven/tokenizer"
	"github.com/custodia-labs/atlas-core/internal/adapters/driven/websearch"
	"github.com/custodia-labs/atlas-core/internal/adapters/driving/http"
	"github.com/custodia-labs/atlas-core/internal/config"
	"github.com/custodia-labs/atlas-core/internal/core/domain"
	"github.com/custodia-labs/atlas-core/internal/core/ports/driven"
	"github.com/custodia-labs/atlas-core/internal/core/services"
	"github.com/custodia-labs/atlas-core/internal/metrics"
	"github.com/custodia-labs/atlas-core/internal/runtime"
	"github.com/custodia-labs/atlas-core/internal/tracing"
	"github.com/custodia-labs/atlas-core/internal/worker"
)

func serveCMD(load func() (*config.Config, error)) *cobra.Command {
	var addr string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return serve
}

// run wires every adapter and service and blocks until ctx is cancelled
func run(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	log.Printf("atlas-core %s starting", version)

	// ===== Telemetry =====
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
		ServiceName: "atlas-core",
		Version:     version,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()
	recorder := metrics.NewRecorder()

	// ===== PostgreSQL =====
	if cfg.Database.MigrateOnStart {
		logger.Info("applying migrations")
		if err := postgres.Migrate(cfg.Database.URL, postgres.MigrateUp, 0); err != nil {
			return err
		}
	}
	dbConfig := postgres.DefaultConfig(cfg.Database.URL)
	if cfg.Database.MaxOpenConns > 0 {
		dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		dbConfig.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	}
	db, err := postgres.Connect(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("postgres connected")

	siteStore := postgres.NewSiteStore(db)
	index := pgvector.NewIndex(db)

	// ===== Embedding cache =====
	cache, closeCache, err := newEmbeddingCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	// ===== AI backends =====
	runtimeServices := runtime.NewServices(domain.NewRuntimeConfig(cfg.Cache.Backend))
	defer runtimeServices.Close()
	runtimeServices.SetBackends(index, siteStore)

	factory := ai.NewFactory(cache, logger)
	embedding, err := factory.CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider:   domain.AIProvider(cfg.Embedding.Provider),
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("embedding backend: %w", err)
	}
	runtimeServices.SetEmbeddingService(embedding)

	llm, err := factory.CreateLLMService(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    cfg.Ollama.Model,
		BaseURL:  cfg.Ollama.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("generation backend: %w", err)
	}
	runtimeServices.SetLLMService(llm)

	// Backends may come up later; the janitor keeps re-probing
	probeCtx, cancelProbe := context.WithTimeout(ctx, 10*time.Second)
	runtimeServices.Probe(probeCtx, logger)
	cancelProbe()
	logger.Info("backend readiness", "backends", runtimeServices.Config().Readiness())

	web, err := websearch.New(websearch.Config{
		Provider: websearch.Provider(cfg.WebSearch.Provider),
		BaseURL:  cfg.WebSearch.BaseURL,
		APIKey:   cfg.WebSearch.APIKey,
		Timeout:  cfg.WebSearch.Timeout,
	})
	if err != nil {
		return fmt.Errorf("web search: %w", err)
	}

	var counter driven.TokenCounter
	if tk, err := tokenizer.NewTiktoken(cfg.Context.Encoding); err != nil {
		logger.Warn("tokenizer unavailable, estimating by characters", "encoding", cfg.Context.Encoding, "error", err)
	} else {
		counter = tk
	}

	// ===== Services (core business logic) =====
	accessCodes := auth.NewAccessCodes(cfg.Auth.AccessCodes)
	logger.Info("access codes loaded", "count", accessCodes.Len())

	admission := services.NewAdmissionController(services.AdmissionConfig{
		Codes:       accessCodes,
		IdleTimeout: cfg.Admission.IdleTimeout,
		Metrics:     recorder,
		Logger:      logger,
	})
	sessionService := services.NewSessionService(admission, auth.NewAdapter(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, logger)

	searchService := services.NewSearchEngine(services.SearchConfig{
		Services:           runtimeServices,
		Index:              index,
		Store:              siteStore,
		Metrics:            recorder,
		Logger:             logger,
		CollectionTimeout:  cfg.Search.CollectionTimeout,
		MaxFeatures:        cfg.Search.MaxFeatures,
		FeatureParallelism: cfg.Search.FeatureParallelism,
		DefaultLimit:       cfg.Search.DefaultLimit,
		MaxLimit:           cfg.Search.MaxLimit,
	})

	orchestrator := services.NewOrchestrator(services.OrchestratorConfig{
		Services:          runtimeServices,
		Search:            searchService,
		Store:             siteStore,
		WebSearch:         web,
		Context:           services.NewContextBuilder(counter, cfg.Context.Budget),
		Resolver:          services.NewReferenceResolver(0, logger),
		Metrics:           recorder,
		Logger:            logger,
		GenerationTimeout: cfg.Generation.Timeout,
		WebSearchTimeout:  cfg.WebSearch.Timeout,
		WebResults:        cfg.WebSearch.Results,
		MaxTokens:         cfg.Generation.MaxTokens,
		Temperature:       cfg.Generation.Temperature,
		LiveTokens:        cfg.Generation.LiveTokens,
	})
	chatService := services.NewChatService(admission, orchestrator, cfg.Admission.PollInterval, logger)

	// ===== Janitor =====
	if cfg.Janitor.Enabled {
		janitor := worker.NewJanitor(worker.JanitorConfig{
			Sweeper:  admission,
			Prober:   runtimeServices,
			Logger:   logger,
			Interval: cfg.Janitor.Interval,
		})
		janitor.Start(ctx)
		defer janitor.Stop()
	}

	// ===== HTTP =====
	server := http.NewServer(
		http.Config{
			Addr:              cfg.Server.Addr,
			Version:           version,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			ShutdownTimeout:   cfg.Server.ShutdownTimeout,
			CORSOrigins:       cfg.Server.CORSOrigins,
			Logger:            logger,
		},
		sessionService,
		admission,
		chatService,
		searchService,
		orchestrator,
		runtimeServices.Config(),
		recorder.Handler(),
	)

	return server.Start(ctx)
}

// newEmbeddingCache builds the configured cache backend. The returned
// cleanup is always safe to call.
func newEmbeddingCache(ctx context.Context, cfg *config.Config) (driven.EmbeddingCache, func(), error) {
	switch cfg.Cache.Backend {
	case "none":
		return nil, func() {}, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		cache := redisadapter.NewEmbeddingCache(client, cfg.Cache.TTL)
		if err := cache.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return cache, func() { _ = client.Close() }, nil
	default:
		return memory.NewEmbeddingCache(cfg.Cache.TTL), func() {}, nil
	}
}
