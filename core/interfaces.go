// Package core defines the shared note model and the sink contract for the
// EnMark pipeline. Each stage of the pipeline works against these types so
// the stages stay independently testable.
package core

import (
	"errors"
	"time"
)

// Attachment is one binary resource embedded in a note.
type Attachment struct {
	FileName string // original name, or a synthesized "untitled.<ext>"
	Data     []byte
	Hash     string // lowercase hex MD5 of Data; the key en-media elements reference
	MimeType string
	Width    int // 0 when the archive declares no dimensions
	Height   int
}

// Note is one note record streamed out of an archive. It is constructed by
// the reader and never mutated afterwards; conversion derives new strings
// from Content instead of rewriting it in place.
type Note struct {
	Title       string
	Content     string // raw inner HTML of the ENEX content element
	Tags        []string
	Created     time.Time // always present, normalized to UTC
	Updated     time.Time // zero when the archive has no updated element
	Author      string
	SourceURL   string
	Attachments []*Attachment
	Source      string // archive name without extension, for {enex} templating
}

// Sink persists converted notes and their attachments.
//
// A sink that cannot store attachments as discrete files reports that through
// SupportsAttachments; the exporter then leaves note content alone instead of
// generating extraction placeholders for it.
type Sink interface {
	// SupportsAttachments reports whether StoreAttachment is available.
	SupportsAttachments() bool

	// StoreNote persists the final Markdown lines of one note.
	StoreNote(note *Note, lines []string) error

	// StoreAttachment persists one attachment and returns a reference to it
	// relative to the note's own location.
	StoreAttachment(note *Note, att *Attachment) (string, error)
}

// ErrAttachmentsUnsupported is returned by StoreAttachment on sinks whose
// SupportsAttachments is false.
var ErrAttachmentsUnsupported = errors.New("sink does not support attachments")

// Timezone selects how timestamps are rendered in metadata headers and in
// path templates.
type Timezone string

// Recognized timezone settings.
const (
	TimezoneUTC   Timezone = "utc"
	TimezoneLocal Timezone = "local"
)

// InTimezone returns t adjusted to the configured timezone.
func InTimezone(t time.Time, tz Timezone) time.Time {
	if tz == TimezoneLocal {
		return t.Local()
	}
	return t.UTC()
}
