package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

// Selection is an optional point or range to locate within the tree.
// A nil Line means "no position given" (spec §4.4: enumerate top-level
// children).
type Selection struct {
	Line, Col       *uint32
	EndLine, EndCol *uint32
}

// Node is one AST-fragment node in the response tree.
type Node struct {
	Kind     string  `json:"kind"`
	Range    types.Range `json:"range"`
	Context  string  `json:"context,omitempty"`
	Children []Node  `json:"children,omitempty"`
}

// Fragment walks t to the smallest node strictly containing sel (or
// enumerates root's top-level children when sel is empty), then
// expands up to depth levels of children, attaching contextLines of
// surrounding source text to each node.
func Fragment(t *parser.Tree, sel Selection, depth, contextLines int) []Node {
	root := t.Root.RootNode()
	if sel.Line == nil {
		return childNodes(*root, t.Source, depth, contextLines)
	}
	target := smallestContaining(*root, sel)
	if target == nil {
		return nil
	}
	return []Node{buildNode(*target, t.Source, depth, contextLines)}
}

func smallestContaining(n tree_sitter.Node, sel Selection) *tree_sitter.Node {
	startLine, startCol := *sel.Line, valueOr(sel.Col, 0)
	endLine, endCol := startLine, startCol
	if sel.EndLine != nil {
		endLine, endCol = *sel.EndLine, valueOr(sel.EndCol, startCol)
	}
	if !nodeStrictlyContains(n, startLine, startCol, endLine, endCol) {
		return nil
	}
	best := n
	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		if found := smallestContaining(*c, sel); found != nil {
			best = *found
		}
	}
	return &best
}

func nodeStrictlyContains(n tree_sitter.Node, startLine, startCol, endLine, endCol uint32) bool {
	s, e := n.StartPosition(), n.EndPosition()
	nStart, nEnd := s.Row+1, e.Row+1
	if startLine < nStart || endLine > nEnd {
		return false
	}
	if startLine == nStart && startCol < s.Column {
		return false
	}
	if endLine == nEnd && endCol > e.Column {
		return false
	}
	return true
}

func valueOr(p *uint32, def uint32) uint32 {
	if p == nil {
		return def
	}
	return *p
}

func childNodes(n tree_sitter.Node, src []byte, depth, contextLines int) []Node {
	count := n.NamedChildCount()
	out := make([]Node, 0, count)
	for i := uint32(0); i < count; i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		out = append(out, buildNode(*c, src, depth, contextLines))
	}
	return out
}

func buildNode(n tree_sitter.Node, src []byte, depth, contextLines int) Node {
	node := Node{Kind: n.Kind(), Range: parser.NodeRange(n)}
	if contextLines > 0 {
		node.Context = surroundingLines(src, node.Range.Start.Line, contextLines)
	}
	if depth > 0 {
		node.Children = childNodes(n, src, depth-1, contextLines)
	}
	return node
}

func surroundingLines(src []byte, line uint32, n int) string {
	lines := strings.Split(string(src), "\n")
	start := int(line) - 1 - n
	if start < 0 {
		start = 0
	}
	end := int(line) - 1 + n
	if end >= len(lines) {
		end = len(lines) - 1
	}
	if start > end || start >= len(lines) {
		return ""
	}
	return strings.Join(lines[start:end+1], "\n")
}
