// Package llm defines the conversation surface toward the streaming chat
// completion endpoint.
//
// The driver consumes the Client and Stream interfaces defined here rather
// than a provider SDK directly, so tests can substitute scripted streams
// and the provider adapter stays confined to one file.
package llm

import "context"

// Message roles in a conversation transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Tool choice modes for a completion request.
const (
	// ToolChoiceAuto lets the model decide whether to call tools.
	ToolChoiceAuto = "auto"

	// ToolChoiceNone forbids tool calls, forcing a natural-language answer.
	ToolChoiceNone = "none"
)

// Message is one entry of a conversation transcript. Exactly one variant
// applies per role: user/system messages carry Content, assistant messages
// carry Content and/or ToolCalls, tool messages carry Content plus the
// ToolCallID they respond to.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a single tool invocation requested by the model.
// Arguments is carried as raw JSON text and parsed lazily by the
// dispatcher, not at materialization time.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant text message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// AssistantToolCalls builds an assistant message carrying tool calls.
func AssistantToolCalls(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls}
}

// ToolMessage builds a tool result message for the given call id.
func ToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Content: content}
}

// ToolSpec describes one callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any
}

// Fragment is a partial piece of a tool call delivered while a response
// streams in. Index is the stream position of the call the fragment belongs
// to; ID and Name may be empty on continuation fragments, and Arguments is
// an incremental slice of the call's JSON argument text.
type Fragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Chunk is one increment of a streamed completion. Either field may be
// zero-valued on any given chunk.
type Chunk struct {
	Text      string
	ToolCalls []Fragment
}

// Stream is an incremental completion response. The usual consumption
// loop mirrors bufio.Scanner: Next, Current, then Err after Next returns
// false. Close releases the underlying connection.
type Stream interface {
	Next() bool
	Current() Chunk
	Err() error
	Close() error
}

// Request is a single completion request.
type Request struct {
	Messages   []Message
	Tools      []ToolSpec
	ToolChoice string
}

// Client is the streaming completion endpoint consumed by the driver.
type Client interface {
	StreamCompletion(ctx context.Context, req Request) (Stream, error)
}
