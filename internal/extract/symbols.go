// Package extract implements the symbol, call, import, lint, AST
// fragment, and snippet extractors (spec §4.4), all built on the
// parser package's query engine.
package extract

import (
	"sort"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

var captureKind = map[string]types.SymbolKind{
	"function":  types.KindFunction,
	"method":    types.KindMethod,
	"struct":    types.KindStruct,
	"class":     types.KindClass,
	"enum":      types.KindEnum,
	"interface": types.KindInterface,
	"trait":     types.KindTrait,
	"type":      types.KindType,
	"const":     types.KindConst,
	"variable":  types.KindVariable,
	"module":    types.KindModule,
	"macro":     types.KindMacro,
}

// SymbolForm selects how much of each Symbol is populated.
type SymbolForm int

const (
	FormCompact SymbolForm = iota // name, kind, line only
	FormFull                      // + range, hash
	FormDoc                       // + doc, no range/hash
)

type symbolHit struct {
	sym       types.Symbol
	startByte uint32
}

// Symbols returns every definition in t, in source order (I1).
func Symbols(pool *parser.Pool, t *parser.Tree, form SymbolForm) []types.Symbol {
	var hits []symbolHit
	pool.EachMatch(t, parser.TagSymbols, func(m parser.Match) bool {
		kind, ok := captureKind[m.MainCapture]
		if !ok {
			return true
		}
		name := captureName(m, t.Source)
		if name == "" {
			return true
		}
		loc := parser.NodeLoc("", m.Node)
		sym := types.Symbol{Name: name, Kind: kind, Line: loc.Line}
		switch form {
		case FormFull:
			r := parser.NodeRange(m.Node)
			sym.Range = &r
			sym.Hash = contentHash(parser.NodeText(m.Node, t.Source))
		case FormDoc:
			sym.Doc = leadingDoc(t, m.Node)
		}
		hits = append(hits, symbolHit{sym: sym, startByte: m.Node.StartByte()})
		return true
	})
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].startByte < hits[j].startByte })
	out := make([]types.Symbol, len(hits))
	for i, h := range hits {
		out[i] = h.sym
	}
	return out
}

// captureName finds the "<main>.name" sub-capture for a match, falling
// back to the first "*.name" capture present (languages name their
// captures consistently but some share one name capture across kinds,
// e.g. Kotlin's simple_identifier).
func captureName(m parser.Match, src []byte) string {
	want := m.MainCapture + ".name"
	if node, ok := m.Names[want]; ok {
		return trimQuotes(parser.NodeText(node, src))
	}
	for name, node := range m.Names {
		if hasSuffix(name, ".name") {
			return trimQuotes(parser.NodeText(node, src))
		}
	}
	return ""
}

func hasSuffix(s, suf string) bool {
	if len(s) < len(suf) {
		return false
	}
	return s[len(s)-len(suf):] == suf
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
