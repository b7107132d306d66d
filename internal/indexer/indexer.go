// Package indexer ingests local content into the knowledge store so the
// search tools have something to find: plain text or markdown files
// become documents, JSON member files become member profiles.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/quorumbot/quorum/internal/knowledge"
	"github.com/quorumbot/quorum/internal/log"
)

// Store is the knowledge write access the indexer needs.
// *knowledge.Store satisfies this.
type Store interface {
	Add(ctx context.Context, doc knowledge.Document) (string, error)
}

// MemberRecord is one entry in a member JSON file.
type MemberRecord struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Documents  []string          `json:"documents"`
}

// Summary reports what one index run ingested.
type Summary struct {
	Documents int
	Members   int
	Skipped   int
}

// Config holds the indexer dependencies.
type Config struct {
	Store  Store
	Logger log.Logger

	// LockPath is the flock file guarding concurrent index runs.
	// Empty means <os.TempDir()>/quorum-index.lock.
	LockPath string
}

// Indexer walks paths and writes their content into the knowledge store.
type Indexer struct {
	store    Store
	logger   log.Logger
	lockPath string
}

// New creates an Indexer.
func New(cfg *Config) (*Indexer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	lockPath := cfg.LockPath
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), "quorum-index.lock")
	}
	return &Indexer{store: cfg.Store, logger: cfg.Logger, lockPath: lockPath}, nil
}

// Run indexes every given path (files or directories, walked
// recursively). A file lock serializes concurrent runs; a second run
// while one is active fails instead of interleaving writes.
func (ix *Indexer) Run(ctx context.Context, paths []string) (Summary, error) {
	if len(paths) == 0 {
		return Summary{}, fmt.Errorf("at least one path is required")
	}

	lock := flock.New(ix.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return Summary{}, fmt.Errorf("another index run is in progress (lock: %s)", ix.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			ix.logger.Warn("failed to release index lock", "error", err)
		}
	}()

	var summary Summary
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			return ix.indexFile(ctx, path, &summary)
		})
		if err != nil {
			return summary, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	ix.logger.Info("index run complete",
		"documents", summary.Documents,
		"members", summary.Members,
		"skipped", summary.Skipped)
	return summary, nil
}

func (ix *Indexer) indexFile(ctx context.Context, path string, summary *Summary) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		return ix.indexDocument(ctx, path, summary)
	case ".json":
		return ix.indexMembers(ctx, path, summary)
	default:
		summary.Skipped++
		return nil
	}
}

func (ix *Indexer) indexDocument(ctx context.Context, path string, summary *Summary) error {
	content, err := os.ReadFile(path) // #nosec G304 -- paths come from the operator's command line
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.TrimSpace(string(content))
	if text == "" {
		summary.Skipped++
		return nil
	}

	_, err = ix.store.Add(ctx, knowledge.Document{
		ID:         "file:" + filepath.Base(path),
		Content:    text,
		SourceType: knowledge.SourceTypeDocument,
		Metadata:   map[string]string{"path": path},
	})
	if err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	summary.Documents++
	ix.logger.Debug("document indexed", "path", path)
	return nil
}

// indexMembers ingests a JSON array of member records. Each document in
// a record becomes its own knowledge entry tied to the member, so
// search hits stay focused rather than matching one giant profile blob.
func (ix *Indexer) indexMembers(ctx context.Context, path string, summary *Summary) error {
	content, err := os.ReadFile(path) // #nosec G304 -- paths come from the operator's command line
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var records []MemberRecord
	if err := json.Unmarshal(content, &records); err != nil {
		return fmt.Errorf("parse member file %s: %w", path, err)
	}

	for _, record := range records {
		if record.ID == "" {
			return fmt.Errorf("member file %s: record missing id", path)
		}
		attrs := record.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		if record.Name != "" {
			attrs["name"] = record.Name
		}

		for i, doc := range record.Documents {
			text := strings.TrimSpace(doc)
			if text == "" {
				continue
			}
			_, err := ix.store.Add(ctx, knowledge.Document{
				ID:               fmt.Sprintf("member:%s:%d", record.ID, i),
				Content:          text,
				SourceType:       knowledge.SourceTypeMember,
				EntityID:         record.ID,
				EntityAttributes: attrs,
				Metadata:         map[string]string{"path": path},
			})
			if err != nil {
				return fmt.Errorf("index member %s: %w", record.ID, err)
			}
		}
		summary.Members++
		ix.logger.Debug("member indexed", "member_id", record.ID, "documents", len(record.Documents))
	}
	return nil
}
