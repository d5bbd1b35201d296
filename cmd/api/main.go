package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"

	appconfig "blog-api/internal/config"
	pgRepo "blog-api/internal/infra/adapter/persistence/postgres"
	"blog-api/internal/infra/content"
	"blog-api/internal/infra/db"
	"blog-api/internal/infra/llm"
	"blog-api/internal/observability/logging"
	"blog-api/internal/observability/tracing"
	"blog-api/internal/resilience/circuitbreaker"
	"blog-api/pkg/config"
	"blog-api/pkg/ratelimit"

	assistantUC "blog-api/internal/usecase/assistant"
	engagementUC "blog-api/internal/usecase/engagement"
	popularUC "blog-api/internal/usecase/popular"
	postsUC "blog-api/internal/usecase/posts"

	hhttp "blog-api/internal/handler/http"
	hassistant "blog-api/internal/handler/http/assistant"
	hengagement "blog-api/internal/handler/http/engagement"
	"blog-api/internal/handler/http/middleware"
	hpopular "blog-api/internal/handler/http/popular"
	hpost "blog-api/internal/handler/http/post"
	"blog-api/internal/handler/http/requestid"
)

const serviceName = "blog-api"

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	version := getVersion()
	shutdownTracing := tracing.Init(serviceName, version)

	site, err := appconfig.LoadSiteConfig()
	if err != nil {
		logger.Error("failed to load site configuration", slog.Any("error", err))
		os.Exit(1)
	}
	aiCfg, err := appconfig.LoadAIConfig()
	if err != nil {
		logger.Error("failed to load AI configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database := initDatabase(logger)
	components := setupServer(logger, database, site, aiCfg, version)

	runServer(logger, components, version)

	if components.Redis != nil {
		if err := components.Redis.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}
	if database != nil {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("failed to shut down tracer provider", slog.Any("error", err))
	}
}

// initDatabase opens the database and runs migrations. The blog works
// without a database, so a missing or unreachable one returns nil.
func initDatabase(logger *slog.Logger) *sql.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	database, err := db.Open(ctx)
	if errors.Is(err, db.ErrNotConfigured) {
		logger.Warn("DATABASE_URL not set: views, reactions and semantic search are disabled")
		return nil
	}
	if err != nil {
		logger.Error("database unavailable, continuing without it", slog.Any("error", err))
		return nil
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	return config.GetEnvString("VERSION", "dev")
}

// ServerComponents holds what runServer needs besides the handler: the
// background jobs and the resources closed on shutdown.
type ServerComponents struct {
	Handler http.Handler
	Cron    *cron.Cron
	Redis   *redis.Client
}

// setupServer wires repositories, use cases, the rate limiter and routes.
func setupServer(logger *slog.Logger, database *sql.DB, site *appconfig.SiteConfig, aiCfg *appconfig.AIConfig, version string) *ServerComponents {
	catalog := content.NewFileCatalog(site.CatalogPath, site.CatalogTTL)
	if err := catalog.Refresh(context.Background()); err != nil {
		logger.Error("failed to load post catalog", slog.String("path", site.CatalogPath), slog.Any("error", err))
	}

	engagementSvc := &engagementUC.Service{VoteSalt: site.VoteHashSalt}
	assistantSvc := &assistantUC.Service{
		Catalog:             catalog,
		ContextPosts:        aiCfg.Search.ContextPosts,
		DefaultRelated:      aiCfg.Search.DefaultLimit,
		MaxRelated:          aiCfg.Search.MaxLimit,
		EmbeddingProvider:   "none",
		EmbeddingDimensions: aiCfg.OpenAI.EmbeddingDimensions,
		OpenAIConfigured:    aiCfg.OpenAIConfigured(),
		AnthropicConfigured: aiCfg.AnthropicConfigured(),
	}

	var tiers []popularUC.Tier
	var dbcb *circuitbreaker.DBCircuitBreaker
	if database != nil {
		dbcb = circuitbreaker.NewDBCircuitBreaker(database)
		views := pgRepo.NewViewRepo(dbcb)
		engagementSvc.Views = views
		engagementSvc.Reactions = pgRepo.NewReactionRepo(dbcb)
		assistantSvc.DB = dbcb
		assistantSvc.Embeddings = pgRepo.NewPostEmbeddingRepo(dbcb, aiCfg.OpenAI.EmbeddingDimensions)
		tiers = append(tiers, popularUC.Tier{
			Source:   popularUC.SourcePrimary,
			Provider: popularUC.NewViewRanking(views, catalog),
			Timeout:  site.PopularTierTimeout,
		})
	}
	tiers = append(tiers, popularUC.Tier{
		Source:   popularUC.SourceFallback,
		Provider: popularUC.NewRecencyRanking(catalog),
		Timeout:  site.PopularTierTimeout,
	})
	resolver := popularUC.NewResolver(tiers...)

	openAI, anthropic := llm.NewClients(aiCfg)
	if openAI != nil {
		assistantSvc.Providers = append(assistantSvc.Providers, openAI)
		assistantSvc.Embedder = openAI
		assistantSvc.EmbeddingProvider = openAI.Name()
	}
	if anthropic != nil {
		assistantSvc.Providers = append(assistantSvc.Providers, anthropic)
	}
	logger.Info("assistant configured",
		slog.Bool("openai", openAI != nil),
		slog.Bool("anthropic", anthropic != nil),
		slog.Bool("semantic_search", openAI != nil && database != nil))

	rl := setupRateLimiter(logger)

	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}
	ipExtractor := middleware.NewIPExtractor(proxyConfig)
	if proxyConfig.Enabled {
		logger.Info("client ip: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
	} else {
		logger.Info("client ip: using RemoteAddr, proxy headers ignored")
	}

	origins := middleware.NewOrigins(site.AllowedOrigins)
	guards := middleware.NewGuards(
		middleware.NewRateLimitHandler(rl.limiter, ipExtractor, rl.cfg.Enabled),
		origins,
	)

	mux := http.NewServeMux()
	postsSvc := &postsUC.Service{Catalog: catalog, SiteURL: site.SiteURL}
	feed := hpost.DefaultFeedConfig(site.SiteURL)
	hpost.Register(mux, postsSvc, feed, guards, logger)
	hpopular.Register(mux, resolver, guards)
	hengagement.Register(mux, engagementSvc, ipExtractor, guards, logger)
	hassistant.Register(mux, assistantSvc, guards, logger)

	health := &hhttp.HealthHandler{
		Catalog:          catalog,
		DB:               database,
		RateLimitStore:   rl.memory,
		RateLimitBreaker: rl.breaker,
		RateLimitEnabled: rl.cfg.Enabled,
		Version:          version,
	}
	if rl.redis != nil {
		health.Redis = rl.redis
	}
	mux.Handle("GET /health", health)
	mux.Handle("GET /ready", &hhttp.ReadyHandler{Catalog: catalog, DB: database})
	mux.Handle("GET /live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler(rl.metrics.Registry()))

	cors := middleware.DefaultCORSConfig(origins)
	logger.Info("CORS enabled",
		slog.Any("allowed_origins", origins.List()),
		slog.Any("allowed_methods", cors.AllowedMethods),
		slog.Int("max_age", cors.MaxAge))

	handler := hhttp.Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.Metrics,
		hhttp.InputValidation(),
		middleware.CORS(cors),
		hhttp.Timeout(config.GetEnvDuration("REQUEST_TIMEOUT", 45*time.Second)),
	)

	return &ServerComponents{
		Handler: handler,
		Cron:    setupJobs(logger, rl, catalog, dbcb),
		Redis:   rl.client,
	}
}

// rateLimiting groups the limiter with the stores it is built from.
type rateLimiting struct {
	cfg     *ratelimit.RateLimitConfig
	limiter *ratelimit.Limiter
	memory  *ratelimit.InMemoryWindowStore
	redis   *ratelimit.RedisWindowStore
	client  *redis.Client
	breaker *ratelimit.CircuitBreaker
	metrics *ratelimit.PrometheusMetrics
}

// setupRateLimiter builds the limiter. With the redis backend the memory
// store answers while Redis is unreachable or its breaker is open.
func setupRateLimiter(logger *slog.Logger) *rateLimiting {
	cfg := config.LoadRateLimitConfig()
	rlMetrics := ratelimit.NewPrometheusMetrics()
	memory := ratelimit.NewInMemoryWindowStore(ratelimit.InMemoryStoreConfig{
		MaxKeys: cfg.MaxActiveKeys,
		Metrics: rlMetrics,
	})
	rl := &rateLimiting{cfg: cfg, memory: memory, metrics: rlMetrics}

	lc := ratelimit.LimiterConfig{
		Policies: cfg.Policies,
		Store:    memory,
		Metrics:  rlMetrics,
	}

	if cfg.Backend == ratelimit.BackendRedis {
		client, err := ratelimit.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Error("redis unavailable, rate limiting uses the in-memory store",
				slog.Any("error", err))
		} else {
			rl.client = client
			rl.redis = ratelimit.NewRedisWindowStore(client, cfg.RedisPrefix)
			rl.breaker = ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
				FailureThreshold: cfg.CircuitBreakerFailureThreshold,
				RecoveryTimeout:  cfg.CircuitBreakerResetTimeout,
				Metrics:          rlMetrics,
				Name:             "redis",
			})
			lc.Store = rl.redis
			lc.Fallback = memory
			lc.Breaker = rl.breaker
		}
	}
	rl.limiter = ratelimit.NewLimiter(lc)

	if cfg.Enabled {
		attrs := []any{slog.String("backend", lc.Store.Name())}
		for _, class := range ratelimit.AllClasses {
			p := cfg.Policies[class]
			attrs = append(attrs, slog.Group(class.String(),
				slog.Int("limit", p.Limit),
				slog.Duration("window", p.Window)))
		}
		logger.Info("rate limiting initialized", attrs...)
	} else {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}
	return rl
}

// setupJobs schedules limiter cleanup, catalog refresh and pool stats.
func setupJobs(logger *slog.Logger, rl *rateLimiting, catalog *content.FileCatalog, dbcb *circuitbreaker.DBCircuitBreaker) *cron.Cron {
	c := cron.New()

	addJob(logger, c, "@every "+rl.cfg.CleanupInterval.String(), "rate_limit_cleanup", func(ctx context.Context) error {
		removed, err := rl.limiter.Cleanup(ctx)
		if err == nil && removed > 0 {
			logger.Debug("rate limit records removed", slog.Int("removed", removed))
		}
		return err
	})
	addJob(logger, c, "@every 5m", "catalog_refresh", catalog.Refresh)
	if dbcb != nil {
		addJob(logger, c, "@every 30s", "db_pool_stats", func(context.Context) error {
			dbcb.UpdatePoolStats()
			return nil
		})
	}
	return c
}

func addJob(logger *slog.Logger, c *cron.Cron, spec, name string, job func(ctx context.Context) error) {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := job(ctx); err != nil {
			logger.Error("background job failed", slog.String("job", name), slog.Any("error", err))
		}
	})
	if err != nil {
		logger.Error("failed to schedule background job",
			slog.String("job", name), slog.String("spec", spec), slog.Any("error", err))
		os.Exit(1)
	}
}

// runServer starts the HTTP server and the scheduler, and shuts both down
// gracefully on SIGINT or SIGTERM.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components.Cron.Start()
	logger.Info("background jobs started", slog.Int("jobs", len(components.Cron.Entries())))

	addr := ":" + config.GetEnvString("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	<-components.Cron.Stop().Done()
	logger.Debug("background jobs stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}
