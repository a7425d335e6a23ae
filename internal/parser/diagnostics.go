package parser

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/owayo/astro-sight/internal/types"
)

// Diagnose walks t's tree for ERROR and MISSING nodes, returning one
// diagnostic per node found in source order. Parses are total (spec
// §4.2): a syntax error never fails the parse, it is tolerated and
// surfaced here instead.
func Diagnose(t *Tree, path string) []types.Diagnostic {
	out := []types.Diagnostic{}
	root := t.Root.RootNode()
	walkErrors(*root, path, &out)
	return out
}

func walkErrors(n tree_sitter.Node, path string, out *[]types.Diagnostic) {
	switch {
	case n.IsMissing():
		*out = append(*out, types.Diagnostic{
			Path:    path,
			Message: fmt.Sprintf("missing %s at line %d", n.Kind(), n.StartPosition().Row+1),
		})
	case n.IsError():
		*out = append(*out, types.Diagnostic{
			Path:    path,
			Message: fmt.Sprintf("syntax error at line %d", n.StartPosition().Row+1),
		})
	}
	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		c := n.NamedChild(i)
		if c != nil {
			walkErrors(*c, path, out)
		}
	}
}

// Degenerate reports whether t's parse produced only error nodes: the
// rare case spec §7's PARSE_ERROR code names ("grammar produced only
// error nodes"), as opposed to the ordinary case of a few ERROR/MISSING
// nodes tolerated inside an otherwise-parsed tree.
func Degenerate(t *Tree) bool {
	root := t.Root.RootNode()
	if root.NamedChildCount() != 1 {
		return false
	}
	c := root.NamedChild(0)
	if c == nil || !c.IsError() {
		return false
	}
	return c.StartByte() == 0 && int(c.EndByte()) == len(t.Source)
}
