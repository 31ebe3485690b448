package sink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gaurav-prasanna/enmark/core"
)

// Root conditions checked when a FileSystem sink is constructed.
const (
	RootLeaveAsIs    = "leave-as-is"
	RootRequireEmpty = "require-empty"
)

// Policies for a target file that already exists on disk.
const (
	OnExistingBump      = "bump"
	OnExistingFail      = "fail"
	OnExistingOverwrite = "overwrite"
	OnExistingWarn      = "warn"
)

// Default path templates, relative to the output root.
const (
	DefaultNoteTemplate        = "{now}/{enex}/{title}.md"
	DefaultAttachmentsTemplate = "{now}/{enex}/{title}_attachments"
)

// FileSystemConfig configures a FileSystem sink. Zero values fall back to
// the defaults of the original layout: root "output", timestamped note
// directories, underscore replacement, 128-character names, bump on
// collision.
type FileSystemConfig struct {
	Root           string
	NoteTemplate   string // path template for note Markdown files
	AttachTemplate string // path template for attachment folders; derived from NoteTemplate when empty
	AllowSpaces    bool   // keep spaces when sanitizing names
	Replacement    string // what runs of unsafe characters become
	MaxNameLength  int
	RootCondition  string
	OnExisting     string
	Timezone       core.Timezone
}

// Stats counts what a FileSystem sink has written.
type Stats struct {
	NotesWritten       int
	AttachmentsWritten int
}

// templateField matches one substitution field of a path template, with an
// optional Go time layout after a colon: {created:2006/01}.
var templateField = regexp.MustCompile(`\{(now|enex|title|created)(?::([^{}]+))?\}`)

// FileSystem writes note files and attachment files under one output root.
//
// The run timestamp and the set of paths written so far belong to the
// instance: one sink is one run, and collision bumping consults the written
// set before it ever looks at the disk, so two notes of the same run can
// never silently merge.
type FileSystem struct {
	cfg     FileSystemConfig
	unsafe  *regexp.Regexp
	now     time.Time
	written map[string]struct{}
	stats   Stats
}

// NewFileSystem builds a FileSystem sink and checks the root condition. A
// violated condition is fatal here, before any note has been processed.
func NewFileSystem(cfg FileSystemConfig) (*FileSystem, error) {
	if cfg.Root == "" {
		cfg.Root = "output"
	}
	if cfg.NoteTemplate == "" {
		cfg.NoteTemplate = DefaultNoteTemplate
		if cfg.AttachTemplate == "" {
			cfg.AttachTemplate = DefaultAttachmentsTemplate
		}
	}
	if cfg.AttachTemplate == "" {
		// Best-effort derivation from the custom note template.
		cfg.AttachTemplate = strings.TrimSuffix(cfg.NoteTemplate, ".md") + "_attachments"
	}
	if cfg.Replacement == "" {
		cfg.Replacement = "_"
	}
	if cfg.MaxNameLength == 0 {
		cfg.MaxNameLength = 128
	}
	if cfg.RootCondition == "" {
		cfg.RootCondition = RootLeaveAsIs
	}
	if cfg.OnExisting == "" {
		cfg.OnExisting = OnExistingBump
	}

	unsafe := regexp.MustCompile(`[^0-9a-zA-Z_-]+`)
	if cfg.AllowSpaces {
		unsafe = regexp.MustCompile(`[^0-9a-zA-Z _-]+`)
	}

	s := &FileSystem{
		cfg:     cfg,
		unsafe:  unsafe,
		now:     time.Now().UTC(),
		written: make(map[string]struct{}),
	}
	if err := s.checkRootCondition(); err != nil {
		return nil, err
	}
	slog.Info("filesystem sink ready",
		"root", cfg.Root, "note_template", cfg.NoteTemplate, "attachments_template", cfg.AttachTemplate)
	return s, nil
}

func (s *FileSystem) checkRootCondition() error {
	info, err := os.Stat(s.cfg.Root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("sink: checking output root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sink: output root %s is not a directory", s.cfg.Root)
	}
	if s.cfg.RootCondition == RootRequireEmpty {
		entries, err := os.ReadDir(s.cfg.Root)
		if err != nil {
			return fmt.Errorf("sink: checking output root: %w", err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("sink: output root %s must be empty but holds %d items", s.cfg.Root, len(entries))
		}
	}
	return nil
}

// SupportsAttachments reports true: attachments become discrete files.
func (s *FileSystem) SupportsAttachments() bool { return true }

// StoreNote writes the note's lines to the templated path.
func (s *FileSystem) StoreNote(note *core.Note, lines []string) error {
	path, err := s.notePath(note)
	if err != nil {
		return err
	}
	slog.Info("writing note", "title", note.Title, "path", path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sink: creating note directory: %w", err)
	}
	s.written[path] = struct{}{}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("sink: writing note file %s: %w", path, err)
	}
	s.stats.NotesWritten++
	return nil
}

// StoreAttachment writes the attachment bytes under the note's attachment
// folder and returns the reference relative to the note file's directory.
func (s *FileSystem) StoreAttachment(note *core.Note, att *core.Attachment) (string, error) {
	dir := filepath.Join(s.cfg.Root, s.expand(s.cfg.AttachTemplate, note))
	path := s.bumpWhile(filepath.Join(dir, att.FileName), func(p string) bool {
		_, taken := s.written[p]
		return taken
	})

	slog.Info("writing attachment", "title", note.Title, "file", att.FileName, "path", path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("sink: creating attachment directory: %w", err)
	}
	s.written[path] = struct{}{}
	if err := os.WriteFile(path, att.Data, 0o644); err != nil {
		return "", fmt.Errorf("sink: writing attachment file %s: %w", path, err)
	}
	s.stats.AttachmentsWritten++

	notePath, err := s.notePath(note)
	if err != nil {
		return "", err
	}
	ref, err := filepath.Rel(filepath.Dir(notePath), path)
	if err != nil {
		return "", fmt.Errorf("sink: resolving attachment reference: %w", err)
	}
	return filepath.ToSlash(ref), nil
}

// Stats returns the counters accumulated so far.
func (s *FileSystem) Stats() Stats { return s.stats }

// notePath resolves the note's target path, bumping past paths this run has
// already claimed and then applying the on-existing policy to files already
// on disk.
func (s *FileSystem) notePath(note *core.Note) (string, error) {
	path := filepath.Join(s.cfg.Root, s.expand(s.cfg.NoteTemplate, note))
	path = s.bumpWhile(path, func(p string) bool {
		_, taken := s.written[p]
		return taken
	})

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, nil
	}
	switch s.cfg.OnExisting {
	case OnExistingBump:
		path = s.bumpWhile(path, func(p string) bool {
			_, err := os.Stat(p)
			return err == nil
		})
	case OnExistingFail:
		return "", fmt.Errorf("sink: target already exists: %s", path)
	case OnExistingOverwrite:
	case OnExistingWarn:
		slog.Warn("overwriting existing file", "path", path)
	}
	return path, nil
}

// bumpWhile appends _1, _2, ... before the extension until cond lets go.
func (s *FileSystem) bumpWhile(path string, cond func(string) bool) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for counter := 1; cond(path); counter++ {
		path = fmt.Sprintf("%s_%d%s", stem, counter, ext)
	}
	return path
}

// expand fills a path template's fields for one note.
func (s *FileSystem) expand(template string, note *core.Note) string {
	return templateField.ReplaceAllStringFunc(template, func(field string) string {
		m := templateField.FindStringSubmatch(field)
		name, layout := m[1], m[2]
		switch name {
		case "now":
			if layout == "" {
				layout = "20060102_150405"
			}
			return core.InTimezone(s.now, s.cfg.Timezone).Format(layout)
		case "created":
			if layout == "" {
				layout = "2006-01-02"
			}
			return core.InTimezone(note.Created, s.cfg.Timezone).Format(layout)
		case "enex":
			if note.Source == "" {
				return "enex"
			}
			return s.safeName(note.Source)
		default: // title
			return s.safeName(note.Title)
		}
	})
}

// safeName strips unsafe characters from a string so it can serve as one
// path segment.
func (s *FileSystem) safeName(text string) string {
	safe := s.unsafe.ReplaceAllString(text, s.cfg.Replacement)
	if s.cfg.Replacement != "" {
		safe = strings.Trim(safe, s.cfg.Replacement)
	}
	if runes := []rune(safe); len(runes) > s.cfg.MaxNameLength {
		safe = string(runes[:s.cfg.MaxNameLength])
	}
	return safe
}
