package normalize

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseResult(t *testing.T, content string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("parsing rewritten content: %v", err)
	}
	return doc
}

func TestRebuildCodeBlocks(t *testing.T) {
	content := `<div>above</div>` +
		`<div style="font-family: Monaco, monospace;-en-codeblock:true;">` +
		`<div>import this</div>` +
		`<div><br /></div>` +
		`<div>print(“hello”)</div>` +
		`</div>` +
		`<div>below</div>`

	got, err := rewriteTree(content)
	if err != nil {
		t.Fatalf("rewriteTree: %v", err)
	}
	if strings.Contains(got, "-en-codeblock") {
		t.Errorf("code block container survived:\n%s", got)
	}
	if strings.Contains(got, "“") || strings.Contains(got, "”") {
		t.Errorf("typographic quotes survived:\n%s", got)
	}

	doc := parseResult(t, got)
	pre := doc.Find("pre[" + CodeBlockAttr + "]")
	if pre.Length() != 1 {
		t.Fatalf("got %d rewritten pre elements, want 1:\n%s", pre.Length(), got)
	}
	code := pre.Text()
	wantLines := []string{codeBeginSentinel, "import this", "", `print("hello")`, codeEndSentinel}
	gotLines := strings.Split(code, "\n")
	if len(gotLines) != len(wantLines) {
		t.Fatalf("code lines = %q, want %q", gotLines, wantLines)
	}
	for i := range wantLines {
		if gotLines[i] != wantLines[i] {
			t.Errorf("code line %d = %q, want %q", i, gotLines[i], wantLines[i])
		}
	}

	for _, keep := range []string{"above", "below"} {
		if !strings.Contains(got, keep) {
			t.Errorf("content outside the code block lost %q:\n%s", keep, got)
		}
	}
}

func TestRebuildCodeBlocksEmptyContainer(t *testing.T) {
	content := `<div style="-en-codeblock:true;"></div>`
	got, err := rewriteTree(content)
	if err != nil {
		t.Fatalf("rewriteTree: %v", err)
	}
	doc := parseResult(t, got)
	code := doc.Find("pre[" + CodeBlockAttr + "]").Text()
	want := codeBeginSentinel + "\n" + codeEndSentinel
	if code != want {
		t.Errorf("empty code block = %q, want %q", code, want)
	}
}

func TestRebuildCodeBlocksLeavesPlainPreAlone(t *testing.T) {
	content := `<pre>already preformatted</pre>`
	got, err := rewriteTree(content)
	if err != nil {
		t.Fatalf("rewriteTree: %v", err)
	}
	if strings.Contains(got, codeBeginSentinel) {
		t.Errorf("plain pre gained sentinels:\n%s", got)
	}
	if !strings.Contains(got, "already preformatted") {
		t.Errorf("plain pre content lost:\n%s", got)
	}
}

func TestNestWrappedLists(t *testing.T) {
	// The no-bullet pattern: a sublist wrapped in its own styled item
	// instead of living inside the item it belongs to. The list spacing
	// step has already padded the inner list with a line break.
	content := `<ul>` +
		`<li><div>apple</div></li>` +
		`<li style="list-style:none;"><br /><ul><li><div>red</div></li><li><div>green</div></li></ul></li>` +
		`<li><div>banana</div></li>` +
		`</ul>`

	got, err := rewriteTree(content)
	if err != nil {
		t.Fatalf("rewriteTree: %v", err)
	}
	doc := parseResult(t, got)

	top := doc.Find("body > ul > li")
	if top.Length() != 2 {
		t.Fatalf("top-level items = %d, want 2:\n%s", top.Length(), got)
	}
	apple := top.First()
	if !strings.Contains(apple.Text(), "apple") {
		t.Fatalf("first item = %q, want the apple item", apple.Text())
	}
	nested := apple.ChildrenFiltered("ul").Find("li")
	if nested.Length() != 2 {
		t.Errorf("nested items under apple = %d, want 2:\n%s", nested.Length(), got)
	}
	if apple.ChildrenFiltered("br").Length() != 0 {
		t.Errorf("merged item kept the padding line break:\n%s", got)
	}
}

func TestNestWrappedListsWithoutPredecessor(t *testing.T) {
	content := `<ul><li style="list-style:none;"><ul><li><div>orphan</div></li></ul></li></ul>`
	got, err := rewriteTree(content)
	if err != nil {
		t.Fatalf("rewriteTree: %v", err)
	}
	doc := parseResult(t, got)
	wrapper := doc.Find("body > ul > li").First()
	if _, ok := wrapper.Attr("style"); ok {
		t.Errorf("wrapper without predecessor kept its style:\n%s", got)
	}
	if wrapper.Find("ul li").Length() != 1 {
		t.Errorf("orphan sublist lost:\n%s", got)
	}
}

func TestDropTrailingEmptyItem(t *testing.T) {
	content := `<ul><li><div>kept</div></li><li><div><br /></div></li></ul>`
	got, err := rewriteTree(content)
	if err != nil {
		t.Fatalf("rewriteTree: %v", err)
	}
	doc := parseResult(t, got)
	items := doc.Find("li")
	if items.Length() != 1 {
		t.Fatalf("items = %d, want the empty trailing one removed:\n%s", items.Length(), got)
	}
	if strings.TrimSpace(items.First().Text()) != "kept" {
		t.Errorf("surviving item = %q, want %q", items.First().Text(), "kept")
	}
}

func TestDropTrailingEmptyItemKeepsMeaningfulContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"text item", `<ul><li><div>a</div></li><li><div>b</div></li></ul>`},
		{"nested list", `<ul><li><div>a</div></li><li><ul><li><div>b</div></li></ul></li></ul>`},
		{"image", `<ul><li><div>a</div></li><li><img src="x.png"/></li></ul>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rewriteTree(tt.content)
			if err != nil {
				t.Fatalf("rewriteTree: %v", err)
			}
			want := parseResult(t, tt.content).Find("li").Length()
			if got := parseResult(t, got).Find("li").Length(); got != want {
				t.Errorf("items = %d, want %d", got, want)
			}
		})
	}
}
