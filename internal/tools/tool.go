package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/quorumbot/quorum/internal/llm"
)

// Handler is the type-erased execution function stored in a Definition.
// Arguments arrive as parsed JSON; the returned value is serialized for
// the model by the dispatcher.
type Handler = func(ctx context.Context, args map[string]any) (any, error)

/// Definition is a complete, registrable tool: metadata, JSON schema and
// execution logic. AdminOnly tools are hidden from non-admin requesters.
type Definition struct {
	Name        string
	Description string
	AdminOnly   bool

	// Parameters is the input JSON schema in the wire shape the
	// completion API expects.
	Parameters map[string]any

	// Schema is the same input schema in structured form, for surfaces
	// that speak jsonschema natively (the MCP server).
	Schema *jsonschema.Schema

	// Describe renders a short human-readable line for tool-use
	// notifications. Nil means a generic line is used.
	Describe func(call llm.ToolCall) string

	Handler Handler
}

// Spec returns the tool definition in the shape sent to the model.
func (d *Definition) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Parameters,
	}
}

// decodeArguments parses a tool call's raw argument JSON, used by
// Describe renderers that surface argument values.
func decodeArguments(raw string, v any) error {
	return json.Unmarshal([]byte(raw), v)
}

// NewTool creates a Definition with type-safe input and output handling.
//
// The input schema is derived from In via jsonschema.For and resolved
// here, so a malformed input type fails tool construction rather than a
// later call. At execution time the parsed arguments are validated
// against the resolved schema, then decoded into In via a JSON round
// trip. Validation and decode failures surface as execution errors.
func NewTool[In, Out any](name, description string, handler func(ctx context.Context, input In) (Out, error)) (*Definition, error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", name, err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema for %s: %w", name, err)
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %s: %w", name, err)
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("unmarshal schema for %s: %w", name, err)
	}

	erased := func(ctx context.Context, args map[string]any) (any, error) {
		if args == nil {
			args = map[string]any{}
		}
		if err := resolved.Validate(args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}

		jsonBytes, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal arguments: %w", err)
		}
		var input In
		if err := json.Unmarshal(jsonBytes, &input); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		return handler(ctx, input)
	}

	return &Definition{
		Name:        name,
		Description: description,
		Parameters:  params,
		Schema:      schema,
		Handler:     erased,
	}, nil
}
