package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/quorumbot/quorum/internal/knowledge"
	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

// NoteWriter stores a document in the knowledge base.
// *knowledge.Store satisfies this.
type NoteWriter interface {
	Add(ctx context.Context, doc knowledge.Document) (string, error)
}

// StoreNoteInput defines input for the store_note tool.
type StoreNoteInput struct {
	Title   string `json:"title" jsonschema_description:"Short note title"`
	Content string `json:"content" jsonschema_description:"The note body to store"`
}

// StoreNoteOutput is the store_note tool result.
type StoreNoteOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NewStoreNoteTool creates the admin-only store_note definition. Stored
// notes become searchable through search_documents.
func NewStoreNoteTool(writer NoteWriter, logger log.Logger) (*Definition, error) {
	if writer == nil {
		return nil, fmt.Errorf("note writer is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	def, err := NewTool("store_note",
		"Store a note in the knowledge base for later retrieval. "+
			"Notes show up in future search_documents results.",
		func(ctx context.Context, input StoreNoteInput) (StoreNoteOutput, error) {
			title := strings.TrimSpace(input.Title)
			content := strings.TrimSpace(input.Content)
			if title == "" {
				return StoreNoteOutput{}, fmt.Errorf("title is required")
			}
			if content == "" {
				return StoreNoteOutput{}, fmt.Errorf("content is required")
			}

			id, err := writer.Add(ctx, knowledge.Document{
				Content:    title + "\n\n" + content,
				SourceType: knowledge.SourceTypeNote,
				Metadata:   map[string]string{"title": title},
			})
			if err != nil {
				return StoreNoteOutput{}, fmt.Errorf("store note: %w", err)
			}
			logger.Info("note stored", "id", id, "title", title)
			return StoreNoteOutput{ID: id, Title: title}, nil
		})
	if err != nil {
		return nil, err
	}

	def.AdminOnly = true
	def.Describe = func(call llm.ToolCall) string {
		var input StoreNoteInput
		if err := decodeArguments(call.Arguments, &input); err != nil || input.Title == "" {
			return "Storing a note"
		}
		return "Storing note: " + input.Title
	}
	return def, nil
}
