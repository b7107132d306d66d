// Package knowledge implements pgvector-backed semantic search over the
// assistant's document corpus. Every document carries an embedding and the
// store resolves natural-language queries to the closest documents by
// cosine distance.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/quorumbot/quorum/internal/log"
)

// Embedder converts text to a vector. *llm.OpenAI satisfies this.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Config holds the store dependencies.
type Config struct {
	DB       DB
	Embedder Embedder
	Logger   log.Logger
}

func (c *Config) validate() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Embedder == nil {
		return fmt.Errorf("embedder is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// Store provides semantic search and ingestion over the documents table.
type Store struct {
	db       DB
	embedder Embedder
	logger   log.Logger
}

// New creates a Store.
func New(cfg *Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid knowledge config: %w", err)
	}
	return &Store{db: cfg.DB, embedder: cfg.Embedder, logger: cfg.Logger}, nil
}

// Search embeds the query and returns the closest documents by cosine
// similarity, most similar first.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, content, source_type, entity_id, entity_attributes, metadata, created_at,
		1 - (embedding <=> $1) AS similarity
	FROM documents`)

	args := []any{pgvector.NewVector(vec)}
	var conds []string
	if cfg.sourceType != "" {
		args = append(args, cfg.sourceType)
		conds = append(conds, fmt.Sprintf("source_type = $%d", len(args)))
	}
	if cfg.entityID != "" {
		args = append(args, cfg.entityID)
		conds = append(conds, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	args = append(args, cfg.topK)
	sb.WriteString(fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args)))

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.Document.ID,
			&r.Document.Content,
			&r.Document.SourceType,
			&r.Document.EntityID,
			&r.Document.EntityAttributes,
			&r.Document.Metadata,
			&r.Document.CreatedAt,
			&r.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	s.logger.Debug("knowledge search",
		"query", query,
		"source_type", cfg.sourceType,
		"entity_id", cfg.entityID,
		"results", len(results))

	return results, nil
}

// Add embeds the document content and stores it. A missing ID is
// generated. Existing IDs are overwritten with the new content and
// embedding.
func (s *Store) Add(ctx context.Context, doc Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.EntityAttributes == nil {
		doc.EntityAttributes = map[string]string{}
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}

	vec, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return "", fmt.Errorf("embed document: %w", err)
	}

	_, err = s.db.Exec(ctx, `INSERT INTO documents
		(id, content, source_type, entity_id, entity_attributes, metadata, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		source_type = EXCLUDED.source_type,
		entity_id = EXCLUDED.entity_id,
		entity_attributes = EXCLUDED.entity_attributes,
		metadata = EXCLUDED.metadata,
		embedding = EXCLUDED.embedding`,
		doc.ID, doc.Content, doc.SourceType, doc.EntityID,
		doc.EntityAttributes, doc.Metadata, pgvector.NewVector(vec))
	if err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}

	s.logger.Debug("document stored", "id", doc.ID, "source_type", doc.SourceType)
	return doc.ID, nil
}

// DocumentsForEntity returns every document owned by the entity without
// a similarity search.
func (s *Store) DocumentsForEntity(ctx context.Context, entityID string) ([]Document, error) {
	rows, err := s.db.Query(ctx, `SELECT id, content, source_type, entity_id, entity_attributes, metadata, created_at
	FROM documents
	WHERE entity_id = $1
	ORDER BY created_at`, entityID)
	if err != nil {
		return nil, fmt.Errorf("load entity documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Content, &d.SourceType, &d.EntityID,
			&d.EntityAttributes, &d.Metadata, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	rows, err := s.db.Query(ctx, `SELECT count(*) FROM documents`)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("scan count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate count: %w", err)
	}
	return n, nil
}
