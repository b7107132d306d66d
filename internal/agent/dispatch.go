package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

// ToolFunc executes one tool with its parsed arguments. Declared as an
// alias so the registry can hand over plain function maps without a
// conversion layer.
type ToolFunc = func(ctx context.Context, args map[string]any) (any, error)

// ExecuteToolCalls runs a batch of tool calls against the implementation
// map and returns the transcript messages describing the batch: the first
// message is an assistant message echoing the calls verbatim, followed by
// one tool message per call in input order.
//
// Every call is handled independently: a parse failure, an unknown tool
// name, or an implementation error becomes a structured error payload in
// that call's tool message and never affects its siblings. Calls run
// concurrently; output order is reassembled from input order regardless of
// completion order.
func ExecuteToolCalls(ctx context.Context, calls []llm.ToolCall, impls map[string]ToolFunc, logger log.Logger) []llm.Message {
	messages := make([]llm.Message, len(calls)+1)
	messages[0] = llm.AssistantToolCalls(calls)

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			content := executeOne(ctx, call, impls, logger)
			messages[i+1] = llm.ToolMessage(call.ID, encodeTags(content))
		}(i, call)
	}
	wg.Wait()

	return messages
}

// executeOne produces the content payload for a single call. Failures are
// returned as error payloads the model can read and self-correct from on
// its next turn.
func executeOne(ctx context.Context, call llm.ToolCall, impls map[string]ToolFunc, logger log.Logger) any {
	tracer := otel.Tracer("quorum/agent")
	ctx, span := tracer.Start(ctx, "tool.execute")
	span.SetAttributes(attribute.String("tool.name", call.Name))
	defer span.End()

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		logger.Debug("tool call arguments failed to parse",
			"tool", call.Name,
			"call_id", call.ID,
			"error", err,
		)
		return map[string]any{
			"error": "Failed to parse arguments JSON",
			"args":  call.Arguments,
		}
	}

	impl, ok := impls[call.Name]
	if !ok {
		logger.Debug("tool call names unknown tool", "tool", call.Name, "call_id", call.ID)
		return map[string]any{
			"error": fmt.Sprintf("Unknown tool: %s", call.Name),
		}
	}

	result, err := impl(ctx, args)
	if err != nil {
		logger.Debug("tool execution failed",
			"tool", call.Name,
			"call_id", call.ID,
			"error", err,
		)
		return map[string]any{
			"error": fmt.Sprintf("Error executing tool %s: %s", call.Name, err.Error()),
		}
	}

	return result
}
