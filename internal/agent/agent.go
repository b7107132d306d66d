// Package agent implements the conversation loop between the model and
// the tool layer: it streams completions, reassembles tool calls from
// streamed fragments, dispatches them with per-call failure isolation,
// and folds the results back into the transcript until the model answers
// in natural language or the iteration budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

// Surface is where the assistant's visible output goes. The chat-platform
// layer implements it; tests use fakes. A placeholder is opened before the
// model starts answering, text is appended as it streams, and Finalize
// commits the message, returning its text and a stable identifier (the id
// is empty when nothing was said).
type Surface interface {
	OpenPlaceholder(ctx context.Context) error
	Append(ctx context.Context, text string) error
	Finalize(ctx context.Context) (text string, id string, err error)

	// NotifyToolUse surfaces short human-readable descriptions of the
	// tool calls the model just issued.
	NotifyToolUse(ctx context.Context, descriptions []string) error
}

// Describer renders a short human-readable description of a tool call for
// the response surface. Registries provide one per tool.
type Describer = func(call llm.ToolCall) string

// Config contains all required parameters for the Driver.
type Config struct {
	Client llm.Client
	Logger log.Logger

	// MaxIterations bounds the number of completion requests where tool
	// use is allowed. One extra request with tool choice forced to "none"
	// guarantees termination.
	MaxIterations int

	// RateLimiter gates completion requests (nil = use default).
	RateLimiter *rate.Limiter

	// Describers maps tool name to a call describer for surface
	// notifications. Optional.
	Describers map[string]Describer
}

func (cfg Config) validate() error {
	if cfg.Client == nil {
		return errors.New("llm client is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Driver runs the model/tool loop. Iterations are strictly sequential:
// each request depends on the transcript mutated by the previous one. The
// transcript passed to Run is owned by the Driver for the duration of the
// turn; there are no concurrent writers.
type Driver struct {
	client        llm.Client
	logger        log.Logger
	maxIterations int
	limiter       *rate.Limiter
	describers    map[string]Describer
}

// defaultMaxIterations bounds tool-using turns when the config leaves
// MaxIterations unset.
const defaultMaxIterations = 5

// New creates a Driver. Configuration is captured immutably at
// construction so a single Driver is safe for sequential reuse.
func New(cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	// Default: 10 requests/sec sustained, burst of 30.
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	return &Driver{
		client:        cfg.Client,
		logger:        cfg.Logger,
		maxIterations: maxIterations,
		limiter:       limiter,
		describers:    cfg.Describers,
	}, nil
}

// Run drives one conversation turn: it repeatedly requests streamed
// completions over the transcript, executes any tool calls the model
// issues, and appends the results, until the model answers without tools
// or the budget forces a natural-language answer. It returns the stable
// identifier of the last finalized non-empty message, which may be empty
// when the model never said anything.
//
// Transport failures abort the turn and propagate; tool-level failures are
// fed back to the model as ordinary tool results and are invisible here.
func (d *Driver) Run(ctx context.Context, transcript []llm.Message, tools []llm.ToolSpec, impls map[string]ToolFunc, surface Surface) (string, error) {
	tracer := otel.Tracer("quorum/agent")

	// Own the transcript for the duration of the turn.
	messages := make([]llm.Message, len(transcript))
	copy(messages, transcript)

	remaining := d.maxIterations
	var lastMessageID string

	for iteration := 1; ; iteration++ {
		forceAnswer := remaining <= 0
		remaining--

		choice := llm.ToolChoiceAuto
		if forceAnswer {
			choice = llm.ToolChoiceNone
		}

		iterCtx, span := tracer.Start(ctx, "agent.iteration")
		span.SetAttributes(
			attribute.Int("iteration", iteration),
			attribute.String("tool_choice", choice),
		)

		calls, err := d.runIteration(iterCtx, &messages, tools, choice, surface, &lastMessageID)
		span.End()
		if err != nil {
			return lastMessageID, err
		}

		if len(calls) == 0 {
			break
		}
		if forceAnswer {
			// Should not happen with tool choice "none"; never loop on it.
			d.logger.Warn("model requested tools on the forced final pass, ignoring",
				"calls", len(calls))
			break
		}

		d.notifyToolUse(ctx, surface, calls)

		// The dispatcher's output starts with the assistant message
		// echoing the calls, so the model sees on its next turn that it
		// issued them, followed by one tool result per call.
		messages = append(messages, ExecuteToolCalls(ctx, calls, impls, d.logger)...)
	}

	if lastMessageID == "" {
		d.logger.Warn("conversation turn ended without a final message",
			"max_iterations", d.maxIterations)
	}
	return lastMessageID, nil
}

// runIteration performs one completion request: it opens a placeholder,
// streams text into it, accumulates tool-call fragments, finalizes the
// message, and returns the materialized tool calls.
func (d *Driver) runIteration(ctx context.Context, messages *[]llm.Message, tools []llm.ToolSpec, choice string, surface Surface, lastMessageID *string) ([]llm.ToolCall, error) {
	if err := surface.OpenPlaceholder(ctx); err != nil {
		return nil, fmt.Errorf("failed to open placeholder: %w", err)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	stream, err := d.client.StreamCompletion(ctx, llm.Request{
		Messages:   *messages,
		Tools:      tools,
		ToolChoice: choice,
	})
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = stream.Close() }()

	materializer := NewMaterializer()
	for stream.Next() {
		chunk := stream.Current()
		if chunk.Text != "" {
			if err := surface.Append(ctx, chunk.Text); err != nil {
				return nil, fmt.Errorf("failed to append to surface: %w", err)
			}
		}
		for _, fragment := range chunk.ToolCalls {
			materializer.Add(fragment)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("completion stream failed: %w", err)
	}

	text, id, err := surface.Finalize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}
	if text != "" {
		*messages = append(*messages, llm.AssistantMessage(text))
		*lastMessageID = id
	}

	calls := materializer.Calls()
	d.logger.Debug("iteration complete",
		"tool_choice", choice,
		"said_text", text != "",
		"tool_calls", len(calls),
	)
	return calls, nil
}

// notifyToolUse sends per-call descriptions to the surface. Notification
// failures are logged and ignored; they must not derail the turn.
func (d *Driver) notifyToolUse(ctx context.Context, surface Surface, calls []llm.ToolCall) {
	descriptions := make([]string, len(calls))
	for i, call := range calls {
		if describe, ok := d.describers[call.Name]; ok {
			descriptions[i] = describe(call)
			continue
		}
		descriptions[i] = call.Name
	}
	if err := surface.NotifyToolUse(ctx, descriptions); err != nil {
		d.logger.Debug("tool use notification failed", "error", err)
	}
}
