package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	noBulletStyle = regexp.MustCompile(`list-style(?:-type)?:\s*none`)
	curlyQuotes   = strings.NewReplacer("“", `"`, "”", `"`)
)

// rewriteTree runs the transforms that need element structure rather than
// raw text: code block containers, the no-bullet nesting pattern, and empty
// trailing list items. It parses once and serializes once.
func rewriteTree(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("normalize: parsing note body: %w", err)
	}

	rebuildCodeBlocks(doc)
	nestWrappedLists(doc)
	dropTrailingEmptyItem(doc)

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("normalize: serializing note body: %w", err)
	}
	return body, nil
}

// rebuildCodeBlocks converts code block containers into pre elements. The
// export format marks a code block with a style declaration and holds one
// child div per source line, a lone line break standing in for a blank line.
// The collected lines travel between two sentinel lines that the postprocess
// step turns into code fences.
func rebuildCodeBlocks(doc *goquery.Document) {
	doc.Find(`[style*="-en-codeblock:true"]`).Each(func(_ int, block *goquery.Selection) {
		var b strings.Builder
		b.WriteString(codeBeginSentinel + "\n")
		block.Find("div").Each(func(_ int, line *goquery.Selection) {
			b.WriteString(line.Text() + "\n")
		})
		b.WriteString(codeEndSentinel)

		// Evernote swaps straight quotes for typographic ones even in code.
		code := curlyQuotes.Replace(b.String())
		block.ReplaceWithHtml("<pre " + CodeBlockAttr + `="true">` + html.EscapeString(code) + "</pre>")
	})
}

// nestWrappedLists repairs the pattern where a sublist is wrapped in a
// no-bullet list item of its own instead of being nested inside the item it
// belongs to. The wrapped list moves into the preceding item; a wrapper with
// no preceding item merely loses the style so it renders as a plain item.
func nestWrappedLists(doc *goquery.Document) {
	doc.Find("li").Each(func(_ int, item *goquery.Selection) {
		style, ok := item.Attr("style")
		if !ok || !noBulletStyle.MatchString(style) {
			return
		}
		nested := item.ChildrenFiltered("ul, ol")
		if nested.Length() == 0 {
			return
		}
		// The list spacing step padded the inner list with a line break,
		// which would leak into the merged item as a blank line.
		item.ChildrenFiltered("br").Remove()

		prev := item.Prev()
		if prev.Length() > 0 && goquery.NodeName(prev) == "li" {
			prev.AppendSelection(nested)
			item.Remove()
			return
		}
		item.RemoveAttr("style")
	})
}

// dropTrailingEmptyItem removes the empty placeholder item some editors
// leave at the end of a list, which would otherwise render as a bare
// trailing bullet.
func dropTrailingEmptyItem(doc *goquery.Document) {
	doc.Find("ul, ol").Each(func(_ int, list *goquery.Selection) {
		last := list.ChildrenFiltered("li").Last()
		if last.Length() == 0 {
			return
		}
		if strings.TrimSpace(last.Text()) != "" {
			return
		}
		if last.Find("ul, ol, img, en-media").Length() > 0 {
			return
		}
		last.Remove()
	})
}
