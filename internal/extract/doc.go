package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

// leadingDoc applies the language-specific docstring heuristic (spec
// §4.4): a preceding line/block comment chain for C-family and shell
// languages, a leading triple-quoted string statement for Python, and
// nothing for every other language.
func leadingDoc(t *parser.Tree, n tree_sitter.Node) string {
	switch t.Language {
	case types.LangPython:
		return pythonDocstring(t, n)
	case types.LangBash:
		return commentChain(t, n, "comment")
	case types.LangC, types.LangCpp, types.LangJava, types.LangCSharp,
		types.LangJavaScript, types.LangTypeScript, types.LangTSX,
		types.LangGo, types.LangRust, types.LangPHP, types.LangKotlin,
		types.LangSwift:
		return commentChain(t, n, "comment")
	default:
		return ""
	}
}

// commentChain walks backward over immediately-preceding sibling
// comment nodes and joins them, innermost (closest) first reversed to
// source order.
func commentChain(t *parser.Tree, n tree_sitter.Node, commentType string) string {
	var lines []string
	cur := n.PrevSibling()
	for cur != nil && cur.Kind() == commentType {
		lines = append(lines, strings.TrimSpace(parser.NodeText(*cur, t.Source)))
		cur = cur.PrevSibling()
	}
	if len(lines) == 0 {
		return ""
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}

// pythonDocstring returns the body's first statement if it is a bare
// string expression (a "docstring").
func pythonDocstring(t *parser.Tree, n tree_sitter.Node) string {
	body := findChildByKind(n, "block")
	if body == nil {
		return ""
	}
	if body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Kind() != "expression_statement" {
		return ""
	}
	if first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Kind() != "string" {
		return ""
	}
	return strings.Trim(parser.NodeText(*str, t.Source), "\"'")
}

func findChildByKind(n tree_sitter.Node, kind string) *tree_sitter.Node {
	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		c := n.NamedChild(i)
		if c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}
