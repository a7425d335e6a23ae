package extract

import (
	"strings"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

var importKindByLanguage = map[types.Language]types.ImportKind{
	types.LangRust:       types.ImportKindUse,
	types.LangPython:     types.ImportKindImport,
	types.LangGo:         types.ImportKindImport,
	types.LangJava:       types.ImportKindImport,
	types.LangKotlin:     types.ImportKindImport,
	types.LangSwift:      types.ImportKindImport,
	types.LangCSharp:     types.ImportKindImport,
	types.LangPHP:        types.ImportKindImport,
	types.LangC:          types.ImportKindInclude,
	types.LangCpp:        types.ImportKindInclude,
	types.LangJavaScript: types.ImportKindImport,
	types.LangTypeScript: types.ImportKindImport,
	types.LangTSX:        types.ImportKindImport,
}

// Imports returns every import/use/include/require statement in t, in
// source order. Bash has no import construct and always returns nil
// (spec §4.4).
func Imports(pool *parser.Pool, t *parser.Tree) []types.ImportEdge {
	if t.Language == types.LangBash {
		return nil
	}
	var edges []types.ImportEdge
	pool.EachMatch(t, parser.TagImports, func(m parser.Match) bool {
		loc := parser.NodeLoc("", m.Node)
		kind := importKind(t.Language, m.Node.Kind())
		edges = append(edges, types.ImportEdge{
			Source:  importSource(m, t.Source),
			Line:    loc.Line,
			Kind:    kind,
			Context: strings.TrimSpace(lineText(t.Source, loc.Line)),
		})
		return true
	})
	return edges
}

func importKind(l types.Language, nodeKind string) types.ImportKind {
	// JS/TS dynamic require(...) is tagged via the same "imports" query
	// as the static import_statement; distinguish by node kind.
	if (l == types.LangJavaScript || l == types.LangTypeScript || l == types.LangTSX) && nodeKind == "call_expression" {
		return types.ImportKindRequire
	}
	if k, ok := importKindByLanguage[l]; ok {
		return k
	}
	return types.ImportKindImport
}

func importSource(m parser.Match, src []byte) string {
	for _, key := range []string{"import.source", "import.path"} {
		if n, ok := m.Names[key]; ok {
			return trimQuotes(parser.NodeText(n, src))
		}
	}
	return ""
}

func lineText(src []byte, line uint32) string {
	lines := splitLinesKeepNone(src)
	idx := int(line) - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return lines[idx]
}

func splitLinesKeepNone(src []byte) []string {
	return strings.Split(string(src), "\n")
}
