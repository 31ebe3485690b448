package normalize

import (
	"regexp"
	"strings"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// Postprocess cleans the flat text that comes out of the Markdown renderer:
// it trims line endings, removes emphasis markers stranded around content
// that rendered to nothing, undoes the renderer's over-indentation of plain
// lines inside list items, turns the code sentinels into fences, and squeezes
// blank-line runs down to a single blank line. Lines between the code
// sentinels pass through untouched apart from the trailing trim: the renderer
// emits them verbatim, so their indentation and markers are real code.
func Postprocess(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inCode := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")

		if line == codeBeginSentinel || line == codeEndSentinel {
			inCode = line == codeBeginSentinel
			out = append(out, "```")
			continue
		}
		if inCode {
			out = append(out, line)
			continue
		}

		if line == "**" || line == " **" {
			line = ""
		}

		// The renderer indents continuation lines inside list items by
		// four spaces even when they are ordinary paragraph text. Bullet
		// lines keep their indentation.
		if indented, rest := exactFourSpaces(line); indented && !strings.HasPrefix(rest, "*") {
			line = rest
		}
		out = append(out, line)
	}

	return collapseBlankRuns(strings.Join(out, "\n"))
}

// exactFourSpaces reports whether line starts with exactly four spaces, and
// returns the remainder after them.
func exactFourSpaces(line string) (bool, string) {
	if !strings.HasPrefix(line, "    ") {
		return false, line
	}
	rest := line[4:]
	if strings.HasPrefix(rest, " ") {
		return false, line
	}
	return true, rest
}

// collapseBlankRuns squeezes runs of three or more newlines to two and trims
// leading and trailing blank space. Applying it twice changes nothing.
func collapseBlankRuns(text string) string {
	return strings.TrimSpace(blankRun.ReplaceAllString(text, "\n\n"))
}
