// Package sink implements the destinations converted notes are written to:
// a console stream and a filesystem layout driven by path templates.
package sink

import (
	"fmt"
	"io"

	"github.com/gaurav-prasanna/enmark/core"
)

// Console streams converted notes to a writer, each one framed by marker
// lines. It cannot store attachments as discrete files, so it declines them
// and the exporter leaves attachment markup alone.
type Console struct {
	w     io.Writer
	notes int
}

// NewConsole returns a Console sink writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// SupportsAttachments reports false: a stream has nowhere to put files.
func (c *Console) SupportsAttachments() bool { return false }

// StoreNote writes the note's lines between the note delimiter markers.
func (c *Console) StoreNote(note *core.Note, lines []string) error {
	if _, err := fmt.Fprintln(c.w, "--- New Note ---"); err != nil {
		return fmt.Errorf("sink: writing note %q: %w", note.Title, err)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(c.w, line); err != nil {
			return fmt.Errorf("sink: writing note %q: %w", note.Title, err)
		}
	}
	if _, err := fmt.Fprintln(c.w, "--- End Note ---"); err != nil {
		return fmt.Errorf("sink: writing note %q: %w", note.Title, err)
	}
	c.notes++
	return nil
}

// StoreAttachment always fails with core.ErrAttachmentsUnsupported.
func (c *Console) StoreAttachment(note *core.Note, att *core.Attachment) (string, error) {
	return "", core.ErrAttachmentsUnsupported
}

// NotesWritten returns the number of notes streamed so far.
func (c *Console) NotesWritten() int { return c.notes }
