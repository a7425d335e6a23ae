package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/owayo/astro-sight/internal/types"
)

// Match is one query match: the node captured under mainCapture (the
// capture name with no ".sub" suffix) plus every sub-capture by name
// (e.g. "function.name") for that same match.
type Match struct {
	MainCapture string
	Node        tree_sitter.Node
	Names       map[string]tree_sitter.Node
}

// EachMatch runs the precompiled query registered under tag for t's
// language, streaming one Match per query match to fn. The underlying
// tree-sitter match stream is consumed lazily and never materialized
// in full (spec §4.3); fn's return value controls early exit.
func (p *Pool) EachMatch(t *Tree, tag string, fn func(Match) (cont bool)) {
	query := p.Query(t.Language, tag)
	if query == nil {
		return
	}
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	names := query.CaptureNames()
	matches := qc.Matches(query, t.Root.RootNode(), t.Source)
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		if !m.SatisfiesTextPredicate(query, nil, nil, t.Source) {
			continue
		}
		subs := make(map[string]tree_sitter.Node, 4)
		var main string
		var mainNode tree_sitter.Node
		for _, c := range m.Captures {
			name := names[c.Index]
			if hasDotSuffix(name) {
				subs[name] = c.Node
				continue
			}
			main = name
			mainNode = c.Node
		}
		if main == "" {
			continue
		}
		if !fn(Match{MainCapture: main, Node: mainNode, Names: subs}) {
			return
		}
	}
}

func hasDotSuffix(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}

// NodeText slices the source text spanned by n.
func NodeText(n tree_sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

// NodeLoc converts a node's start point into a 1-based Location line +
// 0-based byte column (the system's fixed column convention, spec §3
// Open Questions).
func NodeLoc(path string, n tree_sitter.Node) types.Location {
	pt := n.StartPosition()
	return types.Location{Path: path, Line: pt.Row + 1, Column: pt.Column}
}

// NodeRange converts a node's full span into a types.Range.
func NodeRange(n tree_sitter.Node) types.Range {
	s, e := n.StartPosition(), n.EndPosition()
	return types.Range{
		Start: types.Point{Line: s.Row + 1, Column: s.Column},
		End:   types.Point{Line: e.Row + 1, Column: e.Column},
	}
}
