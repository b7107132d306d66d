package agent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

func TestExecuteToolCalls_MessageShape(t *testing.T) {
	calls := []llm.ToolCall{
		{ID: "call_1", Name: "echo", Arguments: `{"text":"a"}`},
		{ID: "call_2", Name: "echo", Arguments: `{"text":"b"}`},
		{ID: "call_3", Name: "echo", Arguments: `{"text":"c"}`},
	}
	impls := map[string]ToolFunc{
		"echo": func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"text": args["text"]}, nil
		},
	}

	messages := ExecuteToolCalls(context.Background(), calls, impls, log.NewNop())

	// N calls produce N+1 messages.
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}

	// Message 0 is the assistant echo carrying the input verbatim.
	if messages[0].Role != llm.RoleAssistant {
		t.Errorf("messages[0].Role = %q, want assistant", messages[0].Role)
	}
	if !reflect.DeepEqual(messages[0].ToolCalls, calls) {
		t.Errorf("messages[0].ToolCalls = %+v, want input calls", messages[0].ToolCalls)
	}

	// Tool messages follow in input order regardless of completion order.
	for i, call := range calls {
		msg := messages[i+1]
		if msg.Role != llm.RoleTool {
			t.Errorf("messages[%d].Role = %q, want tool", i+1, msg.Role)
		}
		if msg.ToolCallID != call.ID {
			t.Errorf("messages[%d].ToolCallID = %q, want %q", i+1, msg.ToolCallID, call.ID)
		}
	}
	if messages[1].Content != "<text>a</text>" {
		t.Errorf("messages[1].Content = %q, want <text>a</text>", messages[1].Content)
	}
}

func TestExecuteToolCalls_ParseFailureSkipsImplementation(t *testing.T) {
	invoked := false
	impls := map[string]ToolFunc{
		"getStock": func(context.Context, map[string]any) (any, error) {
			invoked = true
			return nil, nil
		},
	}
	calls := []llm.ToolCall{{ID: "call_1", Name: "getStock", Arguments: `{"symbol": `}}

	messages := ExecuteToolCalls(context.Background(), calls, impls, log.NewNop())

	if invoked {
		t.Error("implementation was invoked despite unparseable arguments")
	}
	content := messages[1].Content
	if !strings.Contains(content, "<error>Failed to parse arguments JSON</error>") {
		t.Errorf("content = %q, missing parse error", content)
	}
	if !strings.Contains(content, `<args>{"symbol": </args>`) {
		t.Errorf("content = %q, missing original argument text", content)
	}
}

func TestExecuteToolCalls_UnknownTool(t *testing.T) {
	calls := []llm.ToolCall{{ID: "call_1", Name: "getWeather", Arguments: `{}`}}

	messages := ExecuteToolCalls(context.Background(), calls, map[string]ToolFunc{}, log.NewNop())

	want := "<error>Unknown tool: getWeather</error>"
	if messages[1].Content != want {
		t.Errorf("content = %q, want %q", messages[1].Content, want)
	}
}

func TestExecuteToolCalls_ImplementationFailure(t *testing.T) {
	impls := map[string]ToolFunc{
		"getWeather": func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	}
	calls := []llm.ToolCall{{ID: "call_1", Name: "getWeather", Arguments: `{}`}}

	messages := ExecuteToolCalls(context.Background(), calls, impls, log.NewNop())

	want := "<error>Error executing tool getWeather: boom</error>"
	if messages[1].Content != want {
		t.Errorf("content = %q, want %q", messages[1].Content, want)
	}
}

// TestExecuteToolCalls_FailureIsolation mirrors a batch where one call
// succeeds, one has malformed JSON, and one fails during execution: four
// messages come back and each failure stays local to its call.
func TestExecuteToolCalls_FailureIsolation(t *testing.T) {
	impls := map[string]ToolFunc{
		"getWeather": func(_ context.Context, args map[string]any) (any, error) {
			if args["city"] == "atlantis" {
				return nil, errors.New("boom")
			}
			return map[string]any{"forecast": "sunny"}, nil
		},
	}
	calls := []llm.ToolCall{
		{ID: "call_1", Name: "getWeather", Arguments: `{"city":"lisbon"}`},
		{ID: "call_2", Name: "getStock", Arguments: `not json`},
		{ID: "call_3", Name: "getWeather", Arguments: `{"city":"atlantis"}`},
	}

	messages := ExecuteToolCalls(context.Background(), calls, impls, log.NewNop())

	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4", len(messages))
	}
	if messages[1].Content != "<forecast>sunny</forecast>" {
		t.Errorf("success payload = %q", messages[1].Content)
	}
	if !strings.Contains(messages[2].Content, "Failed to parse arguments JSON") {
		t.Errorf("parse error payload = %q", messages[2].Content)
	}
	if messages[3].Content != "<error>Error executing tool getWeather: boom</error>" {
		t.Errorf("execution error payload = %q", messages[3].Content)
	}
}

// TestExecuteToolCalls_ConcurrentCompletionOrder forces completion in
// reverse input order and verifies output order still matches the input.
func TestExecuteToolCalls_ConcurrentCompletionOrder(t *testing.T) {
	var mu sync.Mutex
	var completed []string

	impls := map[string]ToolFunc{
		"slow": func(ctx context.Context, args map[string]any) (any, error) {
			d, _ := args["delay_ms"].(float64)
			select {
			case <-time.After(time.Duration(d) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			mu.Lock()
			completed = append(completed, args["tag"].(string))
			mu.Unlock()
			return map[string]any{"tag": args["tag"]}, nil
		},
	}
	calls := []llm.ToolCall{
		{ID: "call_1", Name: "slow", Arguments: `{"tag":"first","delay_ms":60}`},
		{ID: "call_2", Name: "slow", Arguments: `{"tag":"second","delay_ms":30}`},
		{ID: "call_3", Name: "slow", Arguments: `{"tag":"third","delay_ms":5}`},
	}

	messages := ExecuteToolCalls(context.Background(), calls, impls, log.NewNop())

	mu.Lock()
	gotCompleted := append([]string(nil), completed...)
	mu.Unlock()
	if len(gotCompleted) == 3 && gotCompleted[0] == "first" {
		t.Log("calls completed in input order; timing did not exercise reordering")
	}

	wantContents := []string{"<tag>first</tag>", "<tag>second</tag>", "<tag>third</tag>"}
	for i, want := range wantContents {
		if messages[i+1].Content != want {
			t.Errorf("messages[%d].Content = %q, want %q", i+1, messages[i+1].Content, want)
		}
	}
}

func TestExecuteToolCalls_EmptyBatch(t *testing.T) {
	messages := ExecuteToolCalls(context.Background(), nil, map[string]ToolFunc{}, log.NewNop())
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want just the assistant echo", len(messages))
	}
}
