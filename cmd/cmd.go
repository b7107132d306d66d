// Package cmd provides CLI commands for quorum.
//
// Commands:
//   - ask: one-shot question answered with tool use
//   - index: ingest local files into the knowledge store
//   - mcp: Model Context Protocol server for external clients
package cmd

import (
	"fmt"
	"os"

	"github.com/quorumbot/quorum/internal/log"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	GitCommit = "unknown"
)

// Execute is the main entry point for the quorum CLI.
func Execute() error {
	logger := log.New(log.Config{
		Level: log.ParseLevel(os.Getenv("QUORUM_LOG_LEVEL")),
		JSON:  os.Getenv("QUORUM_LOG_JSON") != "",
	})

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "ask":
		return runAsk(logger, os.Args[2:])
	case "index":
		return runIndex(logger, os.Args[2:])
	case "mcp":
		return runMCP(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Quorum - community knowledge assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  quorum ask [flags] <question>   Ask a question (searches members and documents)")
	fmt.Println("  quorum index <path>...          Index files and member records")
	fmt.Println("  quorum mcp                      Start MCP server (stdio transport)")
	fmt.Println("  quorum version                  Show version information")
	fmt.Println("  quorum help                     Show this help")
	fmt.Println()
	fmt.Println("Ask flags:")
	fmt.Println("  -user <id>         Requester id, checked against admin_users config")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  OPENAI_API_KEY     Required: OpenAI API key")
	fmt.Println("  DATABASE_URL       Optional: overrides postgres_* config values")
	fmt.Println("  QUORUM_LOG_LEVEL   Optional: debug, info, warn, error")
	fmt.Println()
	fmt.Println("Config file: ~/.quorum/config.yaml")
}
