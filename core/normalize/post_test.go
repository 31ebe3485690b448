package normalize

import (
	"strings"
	"testing"
)

func TestPostprocessTrimsTrailingWhitespace(t *testing.T) {
	got := Postprocess("line one   \nline two\t\n")
	if got != "line one\nline two" {
		t.Errorf("got %q", got)
	}
}

func TestPostprocessBlanksStrayEmphasisLines(t *testing.T) {
	got := Postprocess("before\n**\n **\nafter")
	if strings.Contains(got, "**") {
		t.Errorf("stray emphasis markers survived: %q", got)
	}
}

func TestPostprocessDedentsPlainLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain continuation", "    continuation text", "continuation text"},
		{"bullet keeps indent", "    * bullet", "    * bullet"},
		{"deeper indent untouched", "        eight spaces", "        eight spaces"},
		{"three spaces untouched", "   three", "   three"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Frame the line so the final whole-text trim cannot touch it.
			got := Postprocess("top\n" + tt.in + "\nbottom")
			want := "top\n" + tt.want + "\nbottom"
			if got != want {
				t.Errorf("Postprocess = %q, want %q", got, want)
			}
		})
	}
}

func TestPostprocessRestoresCodeFences(t *testing.T) {
	in := "intro\n\n" + codeBeginSentinel + "\nimport this\n\nprint(x)\n" + codeEndSentinel + "\noutro"
	got := Postprocess(in)
	want := "intro\n\n```\nimport this\n\nprint(x)\n```\noutro"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestPostprocessLeavesCodeLinesAlone(t *testing.T) {
	in := strings.Join([]string{
		"intro",
		"",
		codeBeginSentinel,
		"def f():",
		"    return 1",
		"        return deep",
		"**",
		codeEndSentinel,
		"    plain continuation",
	}, "\n")
	got := Postprocess(in)
	want := strings.Join([]string{
		"intro",
		"",
		"```",
		"def f():",
		"    return 1",
		"        return deep",
		"**",
		"```",
		"plain continuation",
	}, "\n")
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestPostprocessCollapsesBlankRuns(t *testing.T) {
	got := Postprocess("\n\n\na\n\n\n\n\nb\n\n\n")
	if got != "a\n\nb" {
		t.Errorf("got %q", got)
	}
}

func TestCollapseBlankRunsIdempotent(t *testing.T) {
	in := "a\n\n\n\nb\n\n\nc"
	once := collapseBlankRuns(in)
	twice := collapseBlankRuns(once)
	if once != twice {
		t.Errorf("collapser is not idempotent: %q vs %q", once, twice)
	}
}
