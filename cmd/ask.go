package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/quorumbot/quorum/internal/agent"
	"github.com/quorumbot/quorum/internal/app"
	"github.com/quorumbot/quorum/internal/config"
	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
	"github.com/quorumbot/quorum/internal/observability"
	"github.com/quorumbot/quorum/internal/surface"
)

// defaultSystemPrompt is used when the config does not set one.
const defaultSystemPrompt = "You are Quorum, a community knowledge assistant. " +
	"You answer questions about community members, shared documents and notes. " +
	"Use the search tools before answering questions about people or documents; " +
	"do not invent members or content. Cite which member or document an answer " +
	"came from when you can."

// runAsk answers a one-shot question, letting the model use tools.
func runAsk(logger log.Logger, args []string) error {
	flags := flag.NewFlagSet("ask", flag.ContinueOnError)
	userID := flags.String("user", "", "requester id, checked against admin_users config")
	if err := flags.Parse(args); err != nil {
		return err
	}

	question := strings.TrimSpace(strings.Join(flags.Args(), " "))
	if question == "" {
		return fmt.Errorf("usage: quorum ask [flags] <question>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.SetupTracing(ctx, observability.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Environment: cfg.Tracing.Environment,
			ServiceName: cfg.Tracing.ServiceName,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("tracing shutdown error", "error", err)
			}
		}()
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
	}()

	driver, err := agent.New(agent.Config{
		Client:        a.Client,
		Logger:        logger,
		MaxIterations: cfg.MaxIterations,
		Describers:    a.Registry.Describers(),
	})
	if err != nil {
		return fmt.Errorf("creating driver: %w", err)
	}

	console, err := surface.NewConsole(os.Stdout, logger)
	if err != nil {
		return fmt.Errorf("creating console surface: %w", err)
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	transcript := []llm.Message{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage(question),
	}

	admin := cfg.IsAdmin(*userID)
	_, err = driver.Run(ctx,
		transcript,
		a.Registry.Specs(admin),
		a.Registry.Implementations(admin),
		console)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}
	return nil
}
