// Package fusion combines raw similarity-search hits gathered from several
// independent queries into deduplicated, ranked output.
//
// A multi-term search issues one vector query per term plus a synthetic
// query joining all terms, pools every hit, and hands the pool to this
// package. Fusion is pure and synchronous: callers must collect all hits
// before invoking it.
package fusion

import "sort"

// Hit is one raw similarity-search result for a single query.
// Identity is the stable dedup key of the underlying content item;
// EntityID identifies the owning subject (for example a member) when
// applicable.
type Hit struct {
	Identity         string
	Content          string
	Similarity       float64
	Query            string
	EntityID         string
	EntityAttributes map[string]string
}

// FusedResult is one deduplicated content item with its accumulated
// relevance. CombinedScore is the sum of Similarity over every hit sharing
// the identity, across repeated and distinct queries alike. Summing rather
// than averaging rewards items that keep showing up.
type FusedResult struct {
	Identity      string
	Content       string
	CombinedScore float64
	PerQueryScore map[string]float64
}

// EntityGroup collects every fused document belonging to one entity.
// EntityAttributes come from the first hit seen for the entity; later
// conflicting snapshots are discarded.
type EntityGroup struct {
	EntityID          string
	EntityAttributes  map[string]string
	MatchedQueries    []string
	RelevantDocuments []FusedResult
}

// CombineByIdentity groups hits by identity, accumulates per-query and
// combined scores, and returns results sorted by descending combined score.
// The sort is stable: ties keep first-occurrence order. Entity metadata is
// stripped at this stage.
func CombineByIdentity(hits []Hit) []FusedResult {
	byIdentity := make(map[string]*FusedResult)
	order := make([]string, 0, len(hits))

	for _, h := range hits {
		r, ok := byIdentity[h.Identity]
		if !ok {
			r = &FusedResult{
				Identity:      h.Identity,
				Content:       h.Content,
				PerQueryScore: make(map[string]float64),
			}
			byIdentity[h.Identity] = r
			order = append(order, h.Identity)
		}
		// Scores accumulate even when the same query produced the hit
		// more than once.
		r.PerQueryScore[h.Query] += h.Similarity
		r.CombinedScore += h.Similarity
	}

	out := make([]FusedResult, 0, len(order))
	for _, id := range order {
		out = append(out, *byIdentity[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CombinedScore > out[j].CombinedScore
	})
	return out
}

// GroupByEntity groups raw hits by entity, in first-occurrence order.
// Each group carries the distinct queries that matched the entity and the
// entity's documents fused by CombineByIdentity. Hits without an entity id
// are grouped under the empty id.
func GroupByEntity(hits []Hit) []EntityGroup {
	type bucket struct {
		attrs      map[string]string
		queries    []string
		queriesSet map[string]struct{}
		hits       []Hit
	}

	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for _, h := range hits {
		b, ok := buckets[h.EntityID]
		if !ok {
			b = &bucket{
				attrs:      h.EntityAttributes,
				queriesSet: make(map[string]struct{}),
			}
			buckets[h.EntityID] = b
			order = append(order, h.EntityID)
		}
		if _, seen := b.queriesSet[h.Query]; !seen {
			b.queriesSet[h.Query] = struct{}{}
			b.queries = append(b.queries, h.Query)
		}
		b.hits = append(b.hits, h)
	}

	out := make([]EntityGroup, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		out = append(out, EntityGroup{
			EntityID:          id,
			EntityAttributes:  b.attrs,
			MatchedQueries:    b.queries,
			RelevantDocuments: CombineByIdentity(b.hits),
		})
	}
	return out
}
