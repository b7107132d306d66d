// Package app provides application initialization and dependency
// wiring. Setup connects configuration, the model client, the database
// pool and the tool registry; commands pick the pieces they need.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quorumbot/quorum/db"
	"github.com/quorumbot/quorum/internal/config"
	"github.com/quorumbot/quorum/internal/knowledge"
	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
	"github.com/quorumbot/quorum/internal/tools"
)

// App is the assembled application container.
type App struct {
	Config    *config.Config
	Logger    log.Logger
	Client    *llm.OpenAI
	Pool      *pgxpool.Pool
	Knowledge *knowledge.Store
	Registry  *tools.Registry
}

// Setup wires the application: runs migrations, opens the database
// pool, builds the model client, the knowledge store and the tool
// registry.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	client, err := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:         cfg.OpenAIAPIKey(),
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.ModelName,
		EmbeddingModel: cfg.EmbedderModel,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	store, err := knowledge.New(&knowledge.Config{
		DB:       pool,
		Embedder: client,
		Logger:   logger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}

	registry, err := tools.BuildRegistry(&tools.BuildConfig{
		Store:      store,
		Logger:     logger,
		SearchTopK: cfg.SearchTopK,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	logger.Debug("application wired",
		"model", cfg.ModelName,
		"tools", registry.Count())

	return &App{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Pool:      pool,
		Knowledge: store,
		Registry:  registry,
	}, nil
}

// Close shuts down shared resources.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Debug("database pool closed")
	}
	return nil
}
