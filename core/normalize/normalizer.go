// Package normalize rewrites the quirky XHTML dialect found inside note
// archives into plain HTML a generic Markdown renderer handles well, and
// cleans the rendered Markdown up afterwards.
//
// Preprocess runs before rendering and Postprocess after. The two passes
// cooperate through sentinel markers that travel through the renderer as
// ordinary text.
package normalize

import (
	"log/slog"
	"regexp"
	"strings"
)

const (
	// CodeBlockAttr marks pre elements produced by the code block rewrite
	// so the renderer can tell them apart from ordinary pre markup.
	CodeBlockAttr = "data-enmark-codeblock"

	codeBeginSentinel = "code-begin-code-begin-code-begin"
	codeEndSentinel   = "code-end-code-end-code-end"

	attachmentScheme = "enmark-attachment:"
)

// AttachmentPlaceholder returns the inline image stub substituted for an
// en-media element. The exporter swaps it for a real file reference once the
// attachment has been stored.
func AttachmentPlaceholder(hash string) string {
	return "![](" + attachmentScheme + hash + ")"
}

// Preprocess rewrites raw note markup ahead of Markdown rendering.
// extractAttachments controls whether en-media elements become attachment
// placeholders; when the destination cannot store attachment files the
// elements are left in place for the renderer to drop.
func Preprocess(content string, extractAttachments bool) (string, error) {
	// The first five steps are plain text rewrites. They must run before
	// the tree pass because parsing normalizes the self-closing element
	// forms they match on.
	if extractAttachments {
		content = markAttachments(content)
	}
	content = spaceOutLists(content)
	content = normalizeTasks(content)
	content = flattenSpans(content)
	content = cleanTables(content)
	// The remaining rewrites need real structure, so they run on a tree.
	return rewriteTree(content)
}

var (
	mediaElement = regexp.MustCompile(`<en-media ([^>]*)(/>|>\s*</en-media.*?>)`)
	mediaHash    = regexp.MustCompile(`hash="([0-9a-fA-F]+)"`)
)

// markAttachments swaps each en-media element for an attachment placeholder
// keyed by the content hash the element carries. Elements without a hash
// attribute are left in place.
func markAttachments(content string) string {
	return mediaElement.ReplaceAllStringFunc(content, func(element string) string {
		m := mediaHash.FindStringSubmatch(element)
		if m == nil {
			slog.Warn("en-media element has no hash attribute, leaving it in place")
			return element
		}
		return "<div>" + AttachmentPlaceholder(m[1]) + "</div>"
	})
}

// spaceOutLists pads list openings with a line break so a list that directly
// follows a text line keeps a blank line in front of it after rendering.
func spaceOutLists(content string) string {
	content = strings.ReplaceAll(content, "<ul>", "<br /><ul>")
	return strings.ReplaceAll(content, "<ol>", "<br /><ol>")
}

var todoElement = regexp.MustCompile(`<en-todo checked="(true|false)"\s*/>(\[[x ]\] )?`)

// normalizeTasks rewrites en-todo elements into literal checkbox markers.
// A marker already present after the element is consumed first, so the
// rewrite can run over its own output without doubling markers.
func normalizeTasks(content string) string {
	return todoElement.ReplaceAllStringFunc(content, func(element string) string {
		if strings.Contains(element, `"true"`) {
			return `<en-todo checked="true"/>[x] `
		}
		return `<en-todo checked="false"/>[ ] `
	})
}

var (
	spanElement = regexp.MustCompile(`(?s)<span.*?</span>`)
	styledSpan  = regexp.MustCompile(`(?s)^<span style=(?P<formatting>.*?)>(?P<content>.*?)</span>`)
)

// flattenSpans converts styled span elements into literal emphasis markers.
// Renderer escaping is disabled, so the markers come out as live Markdown.
func flattenSpans(content string) string {
	var b strings.Builder
	last := 0
	for _, loc := range spanElement.FindAllStringIndex(content, -1) {
		b.WriteString(content[last:loc[0]])
		b.WriteString(flattenSpan(content[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(content[last:])
	return b.String()
}

func flattenSpan(span string) string {
	m := styledSpan.FindStringSubmatch(span)
	if m == nil {
		return span
	}
	formatting, inner := m[1], m[2]
	// A span holding a lone line break carries style but no text.
	if inner == "<br />" || inner == "<br/>" {
		return "<br />"
	}
	italic := strings.Contains(formatting, "font-style: italic;")
	bold := strings.Contains(formatting, "font-weight: bold;")
	switch {
	case italic && bold:
		return "<span>***" + inner + "***</span>"
	case bold:
		return "<span>**" + inner + "**</span>"
	case italic:
		return "<span>*" + inner + "*</span>"
	default:
		return span
	}
}

var tableElement = regexp.MustCompile(`(?s)<table.*?</table>`)

// cleanTables strips the div wrappers around table cell content, which would
// otherwise read as block structure inside the cells.
func cleanTables(content string) string {
	var b strings.Builder
	last := 0
	for _, loc := range tableElement.FindAllStringIndex(content, -1) {
		b.WriteString(content[last:loc[0]])
		block := content[loc[0]:loc[1]]
		block = strings.ReplaceAll(block, "<div>", "")
		block = strings.ReplaceAll(block, "</div>", "")
		b.WriteString(block)
		last = loc[1]
	}
	b.WriteString(content[last:])
	return b.String()
}
