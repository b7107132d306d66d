// Package surface provides response surface implementations. A surface
// is where the assistant's visible output goes; the console surface
// streams it to a terminal.
package surface

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/quorumbot/quorum/internal/log"
)

// Console streams assistant output to a writer, line-oriented. Each
// finalized message gets a fresh uuid. Safe for concurrent use.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	buf    strings.Builder
	logger log.Logger
}

// NewConsole creates a console surface writing to out.
func NewConsole(out io.Writer, logger log.Logger) (*Console, error) {
	if out == nil {
		return nil, fmt.Errorf("output writer is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Console{out: out, logger: logger}, nil
}

// OpenPlaceholder starts a new message. On a terminal there is nothing
// to reserve; the buffer is reset for the next message.
func (c *Console) OpenPlaceholder(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	return nil
}

// Append writes streamed text through to the terminal as it arrives.
func (c *Console) Append(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(text)
	_, err := io.WriteString(c.out, text)
	return err
}

// Finalize commits the message. The id is empty when nothing was said,
// matching the surface contract.
func (c *Console) Finalize(_ context.Context) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := c.buf.String()
	c.buf.Reset()
	if text == "" {
		return "", "", nil
	}
	if !strings.HasSuffix(text, "\n") {
		if _, err := io.WriteString(c.out, "\n"); err != nil {
			return "", "", err
		}
	}

	id := uuid.NewString()
	c.logger.Debug("message finalized", "id", id, "len", len(text))
	return text, id, nil
}

// NotifyToolUse prints one line per tool call description.
func (c *Console) NotifyToolUse(_ context.Context, descriptions []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, desc := range descriptions {
		if _, err := fmt.Fprintf(c.out, "• %s\n", desc); err != nil {
			return err
		}
	}
	return nil
}
