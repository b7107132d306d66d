package tools

import (
	"fmt"

	"github.com/quorumbot/quorum/internal/log"
)

// KnowledgeStore is the full knowledge access the built-in tools need.
// *knowledge.Store satisfies this.
type KnowledgeStore interface {
	Searcher
	ProfileReader
	NoteWriter
}

// BuildConfig holds dependencies for the built-in tool registry.
type BuildConfig struct {
	Store  KnowledgeStore
	Logger log.Logger

	// SearchTopK bounds results per similarity query. Zero means the
	// toolset default.
	SearchTopK int
}

// BuildRegistry assembles the registry with every built-in tool:
// search_members, search_documents, get_member_profile, read_webpage,
// current_time and the admin-only store_note.
func BuildRegistry(cfg *BuildConfig) (*Registry, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("knowledge store is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	registry := NewRegistry(cfg.Logger)

	search, err := NewSearchToolset(cfg.Store, cfg.Logger, cfg.SearchTopK)
	if err != nil {
		return nil, fmt.Errorf("search toolset: %w", err)
	}
	defs, err := search.Definitions()
	if err != nil {
		return nil, fmt.Errorf("search tools: %w", err)
	}

	profile, err := NewMemberProfileTool(cfg.Store, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("member profile tool: %w", err)
	}
	defs = append(defs, profile)

	webpage, err := NewWebpageToolset(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("webpage toolset: %w", err)
	}
	webpageDefs, err := webpage.Definitions()
	if err != nil {
		return nil, fmt.Errorf("webpage tools: %w", err)
	}
	defs = append(defs, webpageDefs...)

	currentTime, err := NewCurrentTimeTool(nil)
	if err != nil {
		return nil, fmt.Errorf("current_time tool: %w", err)
	}
	defs = append(defs, currentTime)

	storeNote, err := NewStoreNoteTool(cfg.Store, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("store_note tool: %w", err)
	}
	defs = append(defs, storeNote)

	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
