// Package enex streams notes out of Evernote export archives (ENEX files).
//
// An archive is a single XML document with a flat list of note elements.
// Archives routinely reach hundreds of megabytes because binary attachments
// are embedded as base64 text, so the reader decodes one note at a time
// instead of loading the whole document.
package enex

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/gaurav-prasanna/enmark/core"
)

// timestampLayout matches the compact UTC form Evernote writes,
// e.g. 20230709T184204Z.
const timestampLayout = "20060102T150405Z"

var (
	base64Whitespace = regexp.MustCompile(`\s+`)
	mimeSubtype      = regexp.MustCompile(`^\w+/(\w+)`)
)

// xmlNote mirrors one note element of an archive.
type xmlNote struct {
	Title     string        `xml:"title"`
	Content   string        `xml:"content"`
	Created   string        `xml:"created"`
	Updated   string        `xml:"updated"`
	Tags      []string      `xml:"tag"`
	Author    string        `xml:"note-attributes>author"`
	SourceURL string        `xml:"note-attributes>source-url"`
	Resources []xmlResource `xml:"resource"`
}

// xmlResource mirrors one embedded resource element of a note.
type xmlResource struct {
	Data     string `xml:"data"`
	Mime     string `xml:"mime"`
	Width    int    `xml:"width"`
	Height   int    `xml:"height"`
	FileName string `xml:"resource-attributes>file-name"`
}

// Stats counts what a Reader has seen so far.
type Stats struct {
	NotesParsed       int
	NotesSkipped      int
	AttachmentsParsed int
	ResourcesSkipped  int
}

// Reader iterates over the notes of one archive in document order.
//
//	r := enex.NewReader(f, "notebook01")
//	for r.Next() {
//		note := r.Note()
//		...
//	}
//	if err := r.Err(); err != nil {
//		...
//	}
type Reader struct {
	decoder *xml.Decoder
	source  string
	note    *core.Note
	err     error
	stats   Stats
}

// NewReader returns a Reader over the archive streamed by r. source is the
// archive name without extension and is attached to every note for path
// templating.
func NewReader(r io.Reader, source string) *Reader {
	decoder := xml.NewDecoder(r)
	// ENEX content is XHTML escaped into XML, so named HTML entities such
	// as &nbsp; show up outside any DTD the decoder knows about.
	decoder.Entity = xml.HTMLEntity
	return &Reader{decoder: decoder, source: source}
}

// Next advances to the next note. It returns false when the archive is
// exhausted or a read error occurred; Err tells the two apart.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	for {
		tok, err := r.decoder.Token()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			r.err = fmt.Errorf("enex: reading archive: %w", err)
			return false
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "note" {
			continue
		}
		var raw xmlNote
		if err := r.decoder.DecodeElement(&raw, &start); err != nil {
			r.err = fmt.Errorf("enex: decoding note element: %w", err)
			return false
		}
		note, ok := r.buildNote(&raw)
		if !ok {
			r.stats.NotesSkipped++
			continue
		}
		r.note = note
		r.stats.NotesParsed++
		return true
	}
}

// Note returns the note the last successful Next call advanced to.
func (r *Reader) Note() *core.Note { return r.note }

// Err returns the first error hit while reading the archive, if any.
func (r *Reader) Err() error { return r.err }

// Stats returns the counters accumulated so far.
func (r *Reader) Stats() Stats { return r.stats }

// buildNote converts a decoded note element into the pipeline model. The
// second return is false when the note is unusable and should be skipped.
func (r *Reader) buildNote(raw *xmlNote) (*core.Note, bool) {
	if strings.TrimSpace(raw.Created) == "" {
		slog.Warn("skipping note without creation timestamp", "title", raw.Title)
		return nil, false
	}
	created, err := time.Parse(timestampLayout, strings.TrimSpace(raw.Created))
	if err != nil {
		slog.Warn("skipping note with unreadable creation timestamp",
			"title", raw.Title, "created", raw.Created)
		return nil, false
	}

	var updated time.Time
	if ts := strings.TrimSpace(raw.Updated); ts != "" {
		updated, err = time.Parse(timestampLayout, ts)
		if err != nil {
			slog.Warn("ignoring unreadable update timestamp",
				"title", raw.Title, "updated", raw.Updated)
			updated = time.Time{}
		}
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, tag := range raw.Tags {
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	attachments := make([]*core.Attachment, 0, len(raw.Resources))
	for i := range raw.Resources {
		att, err := decodeResource(&raw.Resources[i])
		if err != nil {
			slog.Warn("skipping attachment resource", "title", raw.Title, "error", err)
			r.stats.ResourcesSkipped++
			continue
		}
		attachments = append(attachments, att)
		r.stats.AttachmentsParsed++
	}

	return &core.Note{
		Title:       raw.Title,
		Content:     raw.Content,
		Tags:        tags,
		Created:     created.UTC(),
		Updated:     updated.UTC(),
		Author:      raw.Author,
		SourceURL:   raw.SourceURL,
		Attachments: attachments,
		Source:      r.source,
	}, true
}

// decodeResource turns one resource element into an attachment, decoding the
// base64 payload and hashing it so content references can be resolved later.
func decodeResource(res *xmlResource) (*core.Attachment, error) {
	if strings.TrimSpace(res.Data) == "" {
		return nil, errors.New("enex: resource has no data element")
	}
	data, err := base64.StdEncoding.DecodeString(base64Whitespace.ReplaceAllString(res.Data, ""))
	if err != nil {
		return nil, fmt.Errorf("enex: decoding resource data: %w", err)
	}
	sum := md5.Sum(data)

	name := res.FileName
	if name == "" {
		name = synthesizeFileName(data, res.Mime)
	}
	mimeType := res.Mime
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	return &core.Attachment{
		FileName: name,
		Data:     data,
		Hash:     hex.EncodeToString(sum[:]),
		MimeType: mimeType,
		Width:    res.Width,
		Height:   res.Height,
	}, nil
}

// synthesizeFileName invents a name for a resource that has none. Content
// sniffing decides the extension; the declared mime subtype is the fallback
// when sniffing comes up empty.
func synthesizeFileName(data []byte, declaredMime string) string {
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return "untitled" + ext
	}
	if m := mimeSubtype.FindStringSubmatch(declaredMime); m != nil {
		return "untitled." + m[1]
	}
	return "untitled"
}
