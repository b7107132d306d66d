package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/quorumbot/quorum/internal/fusion"
	"github.com/quorumbot/quorum/internal/knowledge"
	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

// Searcher is the knowledge lookup the search tools need.
// *knowledge.Store satisfies this.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// SearchMembersInput defines input for the search_members tool.
type SearchMembersInput struct {
	Terms []string `json:"terms" jsonschema_description:"Search terms, one focused phrase per element (e.g. ['solar panels', 'investors'])"`
}

// SearchDocumentsInput defines input for the search_documents tool.
type SearchDocumentsInput struct {
	Terms []string `json:"terms" jsonschema_description:"Search terms, one focused phrase per element"`
}

// DocumentMatch is one ranked document in a search result.
type DocumentMatch struct {
	Content       string             `json:"content"`
	Score         float64            `json:"score"`
	PerQueryScore map[string]float64 `json:"per_query_score,omitempty"`
}

// MemberMatch is one member in a search_members result, with the
// queries that matched them and their ranked documents.
type MemberMatch struct {
	MemberID       string            `json:"member_id"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	MatchedQueries []string          `json:"matched_queries"`
	Documents      []DocumentMatch   `json:"documents"`
}

// SearchMembersOutput is the search_members tool result.
type SearchMembersOutput struct {
	Members []MemberMatch `json:"members"`
}

// SearchDocumentsOutput is the search_documents tool result.
type SearchDocumentsOutput struct {
	Documents []DocumentMatch `json:"documents"`
}

// SearchToolset provides the knowledge search tools.
type SearchToolset struct {
	searcher Searcher
	logger   log.Logger
	topK     int
}

// NewSearchToolset creates the search toolset. topK bounds the results
// per individual query, not the pooled total.
func NewSearchToolset(searcher Searcher, logger log.Logger, topK int) (*SearchToolset, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if topK <= 0 {
		topK = 5
	}
	return &SearchToolset{searcher: searcher, logger: logger, topK: topK}, nil
}

// pooledHits runs one similarity query per term, plus a synthetic query
// joining all terms when there is more than one, and pools every hit.
// A document matching several queries accumulates score across them.
func (s *SearchToolset) pooledHits(ctx context.Context, terms []string, sourceType string) ([]fusion.Hit, error) {
	queries := make([]string, 0, len(terms)+1)
	for _, term := range terms {
		if t := strings.TrimSpace(term); t != "" {
			queries = append(queries, t)
		}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("at least one search term is required")
	}
	if len(queries) > 1 {
		queries = append(queries, strings.Join(queries, " "))
	}

	var hits []fusion.Hit
	for _, query := range queries {
		results, err := s.searcher.Search(ctx, query,
			knowledge.WithSourceType(sourceType),
			knowledge.WithTopK(s.topK))
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}
		for _, r := range results {
			hits = append(hits, fusion.Hit{
				Identity:         r.Document.ID,
				Content:          r.Document.Content,
				Similarity:       r.Similarity,
				Query:            query,
				EntityID:         r.Document.EntityID,
				EntityAttributes: r.Document.EntityAttributes,
			})
		}
	}

	s.logger.Debug("pooled search",
		"source_type", sourceType,
		"queries", len(queries),
		"hits", len(hits))
	return hits, nil
}

// SearchMembers pools per-term queries over member content and groups
// the hits by member.
func (s *SearchToolset) SearchMembers(ctx context.Context, input SearchMembersInput) (SearchMembersOutput, error) {
	hits, err := s.pooledHits(ctx, input.Terms, knowledge.SourceTypeMember)
	if err != nil {
		return SearchMembersOutput{}, err
	}

	groups := fusion.GroupByEntity(hits)
	out := SearchMembersOutput{Members: make([]MemberMatch, 0, len(groups))}
	for _, g := range groups {
		match := MemberMatch{
			MemberID:       g.EntityID,
			Attributes:     g.EntityAttributes,
			MatchedQueries: g.MatchedQueries,
			Documents:      make([]DocumentMatch, 0, len(g.RelevantDocuments)),
		}
		for _, doc := range g.RelevantDocuments {
			match.Documents = append(match.Documents, DocumentMatch{
				Content:       doc.Content,
				Score:         doc.CombinedScore,
				PerQueryScore: doc.PerQueryScore,
			})
		}
		out.Members = append(out.Members, match)
	}
	return out, nil
}

// SearchDocuments pools per-term queries over shared documents and
// ranks them by combined score.
func (s *SearchToolset) SearchDocuments(ctx context.Context, input SearchDocumentsInput) (SearchDocumentsOutput, error) {
	hits, err := s.pooledHits(ctx, input.Terms, knowledge.SourceTypeDocument)
	if err != nil {
		return SearchDocumentsOutput{}, err
	}

	fused := fusion.CombineByIdentity(hits)
	out := SearchDocumentsOutput{Documents: make([]DocumentMatch, 0, len(fused))}
	for _, f := range fused {
		out.Documents = append(out.Documents, DocumentMatch{
			Content:       f.Content,
			Score:         f.CombinedScore,
			PerQueryScore: f.PerQueryScore,
		})
	}
	return out, nil
}

// Definitions returns the registrable search tool definitions.
func (s *SearchToolset) Definitions() ([]*Definition, error) {
	searchMembers, err := NewTool("search_members",
		"Search member profiles by topic, skill or interest. "+
			"Pass several focused terms rather than one long phrase; "+
			"results are grouped by member with the queries each one matched.",
		s.SearchMembers)
	if err != nil {
		return nil, err
	}
	searchMembers.Describe = describeTerms("Searching members")

	searchDocuments, err := NewTool("search_documents",
		"Search shared documents and past notes by topic. "+
			"Pass several focused terms; documents matching more terms rank higher.",
		s.SearchDocuments)
	if err != nil {
		return nil, err
	}
	searchDocuments.Describe = describeTerms("Searching documents")

	return []*Definition{searchMembers, searchDocuments}, nil
}

// describeTerms renders a notification line showing the search terms
// when they parse, falling back to the prefix alone.
func describeTerms(prefix string) func(llm.ToolCall) string {
	return func(call llm.ToolCall) string {
		var input struct {
			Terms []string `json:"terms"`
		}
		if err := decodeArguments(call.Arguments, &input); err != nil || len(input.Terms) == 0 {
			return prefix
		}
		return prefix + ": " + strings.Join(input.Terms, ", ")
	}
}
