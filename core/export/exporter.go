// Package export sequences the conversion pipeline for whole archives and
// single notes: normalize, render, resolve attachment references, prepend the
// metadata header, hand the result to a sink.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gaurav-prasanna/enmark/core"
	"github.com/gaurav-prasanna/enmark/core/enex"
	"github.com/gaurav-prasanna/enmark/core/normalize"
	"github.com/gaurav-prasanna/enmark/core/render"
)

// timestampLayout renders header timestamps with an explicit numeric offset,
// e.g. 2023-07-09T18:42:04+00:00.
const timestampLayout = "2006-01-02T15:04:05-07:00"

// ConversionError marks a failure while converting one note's content.
// Archive processing logs it and moves on to the next note; sink failures,
// by contrast, abort the run.
type ConversionError struct {
	Title string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("export: converting note %q: %v", e.Title, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Stats counts what an Exporter has processed.
type Stats struct {
	NotesExported     int
	NotesFailed       int
	AttachmentsStored int
}

// Exporter converts notes to Markdown and writes them to a sink.
type Exporter struct {
	frontMatter bool
	tz          core.Timezone
	renderer    *render.Markdown
	stats       Stats
}

// New returns an Exporter. frontMatter selects the structured metadata block
// over the human-readable one; tz controls how header timestamps are shown.
func New(frontMatter bool, tz core.Timezone) *Exporter {
	return &Exporter{
		frontMatter: frontMatter,
		tz:          tz,
		renderer:    render.NewMarkdown(),
	}
}

// Stats returns the counters accumulated so far.
func (e *Exporter) Stats() Stats { return e.stats }

// ExportArchive streams every note of the archive at path into the sink.
// A missing or unreadable archive is fatal. A note whose content cannot be
// converted is logged and skipped; sink failures end the run.
func (e *Exporter) ExportArchive(path string, sink core.Sink) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("export: opening archive: %w", err)
	}
	defer f.Close()

	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	slog.Info("converting archive", "archive", path)

	r := enex.NewReader(f, source)
	for r.Next() {
		note := r.Note()
		slog.Info("converting note", "title", note.Title)
		if err := e.Export(note, sink); err != nil {
			var conv *ConversionError
			if errors.As(err, &conv) {
				slog.Warn("skipping note", "title", note.Title, "error", err)
				e.stats.NotesFailed++
				continue
			}
			return err
		}
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("export: reading archive %s: %w", path, err)
	}

	stats := r.Stats()
	slog.Info("archive converted", "archive", path,
		"notes_parsed", stats.NotesParsed, "notes_skipped", stats.NotesSkipped,
		"attachments_parsed", stats.AttachmentsParsed, "resources_skipped", stats.ResourcesSkipped)
	return nil
}

// Export converts one note and stores it, plus its attachments when the sink
// takes them, incrementing the exporter's counters.
func (e *Exporter) Export(note *core.Note, sink core.Sink) error {
	extract := sink.SupportsAttachments()

	content, err := normalize.Preprocess(note.Content, extract)
	if err != nil {
		return &ConversionError{Title: note.Title, Err: err}
	}
	content, err = e.renderer.Render(content)
	if err != nil {
		return &ConversionError{Title: note.Title, Err: err}
	}
	content = normalize.Postprocess(content)

	if extract && len(note.Attachments) > 0 {
		content, err = e.resolveAttachments(note, sink, content)
		if err != nil {
			return err
		}
	}

	lines := append(e.header(note), content)
	if err := sink.StoreNote(note, lines); err != nil {
		return err
	}
	e.stats.NotesExported++
	return nil
}

// resolveAttachments stores the note's attachments and swaps each placeholder
// token for a Markdown image reference. Attachments sharing a content hash
// are stored once; every occurrence of the placeholder resolves to that
// single file.
func (e *Exporter) resolveAttachments(note *core.Note, sink core.Sink, content string) (string, error) {
	stored := make(map[string]string, len(note.Attachments))
	for _, att := range note.Attachments {
		ref, ok := stored[att.Hash]
		if !ok {
			r, err := sink.StoreAttachment(note, att)
			if err != nil {
				return "", err
			}
			// Spaces are the only characters escaped in references.
			ref = strings.ReplaceAll(r, " ", "%20")
			stored[att.Hash] = ref
			e.stats.AttachmentsStored++
		}
		content = strings.ReplaceAll(content,
			normalize.AttachmentPlaceholder(att.Hash),
			"\n!["+att.FileName+"]("+ref+")")
	}
	return content, nil
}

// header builds the metadata lines preceding the note content: either a
// front matter block or the readable "Note metadata" section. Optional
// fields appear only when the note carries them.
func (e *Exporter) header(note *core.Note) []string {
	type field struct{ key, label, value string }
	fields := []field{{"title", "Title", note.Title}}
	if note.Author != "" {
		fields = append(fields, field{"author", "Author", note.Author})
	}
	if note.SourceURL != "" {
		fields = append(fields, field{"source_url", "Source URL", note.SourceURL})
	}
	fields = append(fields, field{"created", "Created", e.formatTime(note.Created)})
	if !note.Updated.IsZero() {
		fields = append(fields, field{"updated", "Updated", e.formatTime(note.Updated)})
	}
	if len(note.Tags) > 0 {
		fields = append(fields, field{"tags", "Tags", strings.Join(note.Tags, ", ")})
	}

	if e.frontMatter {
		lines := []string{"---"}
		for _, f := range fields {
			lines = append(lines, f.key+": "+f.value)
		}
		return append(lines, "---", "", "", "# "+note.Title, "")
	}

	lines := []string{"# " + note.Title, "", "## Note metadata", ""}
	for _, f := range fields {
		lines = append(lines, "- "+f.label+": "+f.value)
	}
	return append(lines, "", "## Note Content", "")
}

func (e *Exporter) formatTime(t time.Time) string {
	return core.InTimezone(t, e.tz).Format(timestampLayout)
}
