// Package app wires the application together: database, store,
// embedding client, knowledge index, reasoning client and analyzer.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"babytrack/internal/analysis"
	"babytrack/internal/chunker"
	"babytrack/internal/config"
	"babytrack/internal/database"
	"babytrack/internal/embedder"
	"babytrack/internal/embedder/google"
	"babytrack/internal/generator"
	"babytrack/internal/generator/anthropic"
	"babytrack/internal/knowledge"
	"babytrack/internal/log"
	"babytrack/internal/store"
)

// App is the application container.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	DB       *sql.DB
	Store    *store.Store
	Builder  *knowledge.Builder
	Cache    *knowledge.Cache
	Analyzer *analysis.Analyzer

	embedder *google.Embedder
}

// Setup opens the database, runs migrations and constructs the full
// analysis pipeline.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	emb, err := google.New(ctx, embedder.WithModel(cfg.EmbedderModel))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	builder := knowledge.NewBuilder(cfg.DocsDir, cfg.IndexDir,
		knowledge.NewEmbeddingFunc(emb), chunker.DefaultOptions(), logger)
	cache := knowledge.NewCache(knowledge.OnDisk(builder))
	retriever := knowledge.NewLazyRetriever(cache, cfg.RetrievalTopK)

	gen, err := anthropic.New(generator.WithModel(cfg.ModelName))
	if err != nil {
		_ = emb.Close()
		_ = db.Close()
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	analyzer := analysis.NewAnalyzer(retriever, gen, analysis.Options{
		ReportMaxTokens: cfg.ReportMaxTokens,
		ChatMaxTokens:   cfg.ChatMaxTokens,
		Temperature:     cfg.Temperature,
	}, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Store:    store.New(db, logger),
		Builder:  builder,
		Cache:    cache,
		Analyzer: analyzer,
		embedder: emb,
	}, nil
}

// Close releases all resources.
func (a *App) Close() error {
	var firstErr error
	if a.embedder != nil {
		if err := a.embedder.Close(); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
