package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/quorumbot/quorum/internal/app"
	"github.com/quorumbot/quorum/internal/config"
	"github.com/quorumbot/quorum/internal/indexer"
	"github.com/quorumbot/quorum/internal/log"
)

// runIndex ingests local files into the knowledge store.
func runIndex(logger log.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: quorum index <path>...")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
	}()

	ix, err := indexer.New(&indexer.Config{
		Store:  a.Knowledge,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("creating indexer: %w", err)
	}

	summary, err := ix.Run(ctx, args)
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	fmt.Printf("Indexed %d documents and %d members (%d files skipped)\n",
		summary.Documents, summary.Members, summary.Skipped)
	return nil
}
