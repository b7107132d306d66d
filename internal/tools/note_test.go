package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/quorumbot/quorum/internal/knowledge"
	"github.com/quorumbot/quorum/internal/log"
)

type fakeNoteWriter struct {
	stored []knowledge.Document
}

func (f *fakeNoteWriter) Add(_ context.Context, doc knowledge.Document) (string, error) {
	f.stored = append(f.stored, doc)
	return "note-1", nil
}

func TestStoreNoteTool(t *testing.T) {
	writer := &fakeNoteWriter{}
	def, err := NewStoreNoteTool(writer, log.NewNop())
	if err != nil {
		t.Fatalf("NewStoreNoteTool() error = %v", err)
	}
	if !def.AdminOnly {
		t.Error("store_note must be admin-only")
	}

	got, err := def.Handler(context.Background(), map[string]any{
		"title":   "Budget meeting",
		"content": "Q3 budget approved.",
	})
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	out := got.(StoreNoteOutput)
	if out.ID != "note-1" || out.Title != "Budget meeting" {
		t.Errorf("output = %+v", out)
	}

	if len(writer.stored) != 1 {
		t.Fatalf("stored %d documents, want 1", len(writer.stored))
	}
	doc := writer.stored[0]
	if doc.SourceType != knowledge.SourceTypeNote {
		t.Errorf("source type = %q, want note", doc.SourceType)
	}
	if !strings.Contains(doc.Content, "Budget meeting") || !strings.Contains(doc.Content, "Q3 budget approved.") {
		t.Errorf("stored content = %q, want title and body", doc.Content)
	}
	if doc.Metadata["title"] != "Budget meeting" {
		t.Errorf("metadata = %v, want title entry", doc.Metadata)
	}
}

func TestStoreNoteTool_RequiresTitleAndContent(t *testing.T) {
	def, err := NewStoreNoteTool(&fakeNoteWriter{}, log.NewNop())
	if err != nil {
		t.Fatalf("NewStoreNoteTool() error = %v", err)
	}

	if _, err := def.Handler(context.Background(), map[string]any{"title": "  ", "content": "x"}); err == nil {
		t.Error("blank title should fail")
	}
	if _, err := def.Handler(context.Background(), map[string]any{"title": "x", "content": ""}); err == nil {
		t.Error("empty content should fail")
	}
}
