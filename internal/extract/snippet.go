package extract

import (
	"fmt"
	"strings"
)

// SnippetLine is one rendered line: the target line prefixed ">", its
// context neighbors prefixed " ".
type SnippetLine struct {
	Number  int
	Text    string
	IsTarget bool
}

// Snippet renders line (1-based) plus up to context lines before/after,
// right-aligning line numbers to the widest number in the window
// (spec §4.4).
func Snippet(src []byte, line, context int) []SnippetLine {
	lines := strings.Split(string(src), "\n")
	start := line - context
	if start < 1 {
		start = 1
	}
	end := line + context
	if end > len(lines) {
		end = len(lines)
	}
	out := make([]SnippetLine, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, SnippetLine{Number: n, Text: lines[n-1], IsTarget: n == line})
	}
	return out
}

// Render formats the snippet lines the way the CLI prints them:
// ">N | text" for the target, " N | text" otherwise, numbers padded to
// the widest line number in the window.
func Render(lines []SnippetLine) string {
	if len(lines) == 0 {
		return ""
	}
	width := len(fmt.Sprintf("%d", lines[len(lines)-1].Number))
	var b strings.Builder
	for i, l := range lines {
		marker := " "
		if l.IsTarget {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s%*d | %s", marker, width, l.Number, l.Text)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
