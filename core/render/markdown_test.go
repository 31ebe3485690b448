package render

import (
	"strings"
	"testing"

	"github.com/gaurav-prasanna/enmark/core/normalize"
)

func render(t *testing.T, content string) string {
	t.Helper()
	got, err := NewMarkdown().Render(content)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return got
}

func TestRenderEmphasis(t *testing.T) {
	got := render(t, "<div><b>loud</b> and <i>slanted</i></div>")
	if !strings.Contains(got, "**loud**") {
		t.Errorf("bold missing: %q", got)
	}
	if !strings.Contains(got, "*slanted*") {
		t.Errorf("italic missing: %q", got)
	}
}

func TestRenderInlineLinks(t *testing.T) {
	got := render(t, `<div><a href="https://example.com/page">the page</a></div>`)
	if !strings.Contains(got, "[the page](https://example.com/page)") {
		t.Errorf("inline link missing: %q", got)
	}
}

func TestRenderDivsSingleSpaced(t *testing.T) {
	got := normalize.Postprocess(render(t, "<div>first</div><div>second</div>"))
	if !strings.Contains(got, "first\nsecond") {
		t.Errorf("divs are not single-spaced: %q", got)
	}
}

func TestRenderLiteralMarkdownSurvives(t *testing.T) {
	// The normalizer injects literal Markdown ahead of rendering; escaping
	// must not mangle it.
	got := render(t, `<div><en-todo checked="true"/>[x] Buy milk</div>`)
	if !strings.Contains(got, "[x] Buy milk") {
		t.Errorf("checkbox marker mangled: %q", got)
	}
	got = render(t, "<div><span>**already bold**</span></div>")
	if !strings.Contains(got, "**already bold**") {
		t.Errorf("emphasis markers mangled: %q", got)
	}
}

func TestRenderCodeBlockVerbatim(t *testing.T) {
	content := `<pre ` + normalize.CodeBlockAttr + `="true">first-line
second  line</pre>`
	got := render(t, content)
	if !strings.Contains(got, "first-line\nsecond  line") {
		t.Errorf("code text not verbatim: %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	got := render(t, "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>")
	if !strings.Contains(got, "|") {
		t.Errorf("no Markdown table emitted: %q", got)
	}
	for _, cell := range []string{"a", "b", "c", "d"} {
		if !strings.Contains(got, cell) {
			t.Errorf("cell %q missing: %q", cell, got)
		}
	}
}
