package agent

import (
	"sort"
	"strings"

	"github.com/quorumbot/quorum/internal/llm"
)

// Materializer reassembles tool calls from the fragments a streamed
// response delivers. Fragments are keyed by their integer stream position,
// not by call id: the id usually arrives only on the first fragment for a
// position, while argument text trickles in as partial JSON across many.
//
// Materializer is not safe for concurrent use; the driver feeds it from a
// single stream-consumption loop and discards it when the stream ends.
type Materializer struct {
	byIndex map[int]*partialCall
}

type partialCall struct {
	id   string
	name string
	args strings.Builder
}

// NewMaterializer creates an empty accumulator for one streamed response.
func NewMaterializer() *Materializer {
	return &Materializer{byIndex: make(map[int]*partialCall)}
}

// Add folds one fragment into the record at its stream position. The first
// fragment at a position initializes the record; later fragments overwrite
// id and name only when they carry a non-empty value, and always append
// onto the accumulated argument text.
func (m *Materializer) Add(f llm.Fragment) {
	c, ok := m.byIndex[f.Index]
	if !ok {
		c = &partialCall{}
		m.byIndex[f.Index] = c
	}
	if f.ID != "" {
		c.id = f.ID
	}
	if f.Name != "" {
		c.name = f.Name
	}
	c.args.WriteString(f.Arguments)
}

// Calls returns the materialized tool calls in ascending stream position.
// Only records that ended up with both an id and a name are emitted;
// argument text may still be empty or malformed JSON, which is the
// dispatcher's concern.
func (m *Materializer) Calls() []llm.ToolCall {
	indexes := make([]int, 0, len(m.byIndex))
	for i := range m.byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	calls := make([]llm.ToolCall, 0, len(indexes))
	for _, i := range indexes {
		c := m.byIndex[i]
		if c.id == "" || c.name == "" {
			continue
		}
		calls = append(calls, llm.ToolCall{
			ID:        c.id,
			Name:      c.name,
			Arguments: c.args.String(),
		})
	}
	return calls
}
