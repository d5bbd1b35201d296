// Package main embeds catalog posts into post_embeddings for related-post
// search and chat context.
// Usage: embed-posts [--slug SLUG]... [--concurrency N] [--timeout D]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	appconfig "blog-api/internal/config"
	pgRepo "blog-api/internal/infra/adapter/persistence/postgres"
	"blog-api/internal/infra/content"
	"blog-api/internal/infra/db"
	"blog-api/internal/infra/llm"
	"blog-api/internal/observability/logging"
	"blog-api/internal/resilience/circuitbreaker"
	assistantUC "blog-api/internal/usecase/assistant"
)

// slugList collects repeated --slug flags.
type slugList []string

func (s *slugList) String() string { return strings.Join(*s, ",") }

func (s *slugList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var (
		slugs       slugList
		concurrency int
		timeout     time.Duration
	)
	flag.Var(&slugs, "slug", "Embed only this post (repeatable)")
	flag.IntVar(&concurrency, "concurrency", 4, "Parallel embedding requests")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall deadline")
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger, slugs, concurrency, timeout); err != nil {
		logger.Error("embedding run failed", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, slugs []string, concurrency int, timeout time.Duration) error {
	site, err := appconfig.LoadSiteConfig()
	if err != nil {
		return err
	}
	aiCfg, err := appconfig.LoadAIConfig()
	if err != nil {
		return err
	}
	if !aiCfg.OpenAIConfigured() {
		return errors.New("OPENAI_API_KEY is required to compute embeddings")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	database, err := db.Open(ctx)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()
	if err := db.MigrateUp(ctx, database); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	openAI, _ := llm.NewClients(aiCfg)
	dbcb := circuitbreaker.NewDBCircuitBreaker(database)
	ix := &assistantUC.Indexer{
		Catalog:     content.NewFileCatalog(site.CatalogPath, site.CatalogTTL),
		Embedder:    openAI,
		Embeddings:  pgRepo.NewPostEmbeddingRepo(dbcb, aiCfg.OpenAI.EmbeddingDimensions),
		SiteURL:     site.SiteURL,
		Concurrency: concurrency,
	}

	start := time.Now()
	report, err := ix.Run(ctx, slugs...)
	logger.Info("embedding run finished",
		slog.Int64("indexed", report.Indexed),
		slog.Int64("failed", report.Failed),
		slog.Duration("duration", time.Since(start)))
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d posts failed to embed", report.Failed)
	}
	return nil
}
