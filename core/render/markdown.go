// Package render wraps the generic HTML-to-Markdown converter and teaches it
// the handful of habits the note dialect needs: one div per visual line,
// literal single line breaks, and verbatim passthrough for the pre elements
// the normalizer builds out of code block containers.
package render

import (
	"fmt"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/enmark/core/normalize"
)

// Markdown converts preprocessed note HTML into Markdown text.
type Markdown struct {
	conv *converter.Converter
}

// NewMarkdown creates a converter configured for note bodies: single-asterisk
// emphasis, asterisk bullets, inline links, and no Markdown escaping. The
// normalizer injects literal Markdown (emphasis markers, checkbox markers,
// attachment placeholders) that has to survive conversion untouched, which is
// why escaping stays off.
func NewMarkdown() *Markdown {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithEmDelimiter("*"),
				commonmark.WithStrongDelimiter("**"),
				commonmark.WithBulletListMarker("*"),
			),
			table.NewTablePlugin(),
		),
		converter.WithEscapeMode(converter.EscapeModeDisabled),
	)

	// Code block containers were already flattened to text by the
	// normalizer; emit that text verbatim. Ordinary pre elements fall
	// through to the standard fenced rendering.
	conv.Register.RendererFor("pre", converter.TagTypeBlock,
		func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
			if dom.GetAttributeOr(n, normalize.CodeBlockAttr, "") == "" {
				return converter.RenderTryNext
			}
			w.WriteString("\n")
			w.WriteString(dom.CollectText(n))
			w.WriteString("\n")
			return converter.RenderSuccess
		},
		converter.PriorityEarly,
	)

	// Notes carry one div per visual line. The default block rendering
	// would put a blank line between every pair, double-spacing the
	// whole note.
	conv.Register.RendererFor("div", converter.TagTypeBlock,
		func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
			ctx.RenderChildNodes(ctx, w, n)
			w.WriteString("\n")
			return converter.RenderSuccess
		},
		converter.PriorityEarly,
	)

	// Single line breaks are meaningful in note bodies and must come out
	// as single newlines, not paragraph breaks.
	conv.Register.RendererFor("br", converter.TagTypeInline,
		func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
			w.WriteString("\n")
			return converter.RenderSuccess
		},
		converter.PriorityEarly,
	)

	return &Markdown{conv: conv}
}

// Render converts a preprocessed HTML fragment into Markdown text.
func (m *Markdown) Render(content string) (string, error) {
	markdown, err := m.conv.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("render: converting note body: %w", err)
	}
	return markdown, nil
}
