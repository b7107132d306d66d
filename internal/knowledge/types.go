package knowledge

import "time"

// Source type constants for knowledge documents.
const (
	// SourceTypeMember represents indexed member-profile content.
	SourceTypeMember = "member"

	// SourceTypeDocument represents indexed shared documents.
	SourceTypeDocument = "document"

	// SourceTypeNote represents notes stored by the assistant itself.
	SourceTypeNote = "note"
)

// Document is one stored knowledge item. EntityID and EntityAttributes
// are set for content owned by a subject (a member); both are empty for
// free-standing documents.
type Document struct {
	ID               string
	Content          string
	SourceType       string
	EntityID         string
	EntityAttributes map[string]string
	Metadata         map[string]string
	CreatedAt        time.Time
}

// Result is a single similarity-search result.
type Result struct {
	Document   Document
	Similarity float64 // cosine similarity, higher is closer
}

// SearchOption configures search behavior.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK       int
	sourceType string
	entityID   string
}

// WithTopK sets the maximum number of results. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithSourceType restricts results to one source type.
func WithSourceType(sourceType string) SearchOption {
	return func(c *searchConfig) {
		c.sourceType = sourceType
	}
}

// WithEntity restricts results to documents owned by one entity.
func WithEntity(entityID string) SearchOption {
	return func(c *searchConfig) {
		c.entityID = entityID
	}
}

const defaultTopK = 5

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{topK: defaultTopK}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
