package extract

import (
	"fmt"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

type enclosing struct {
	sym             types.Symbol
	startLine, startCol uint32
	endLine, endCol     uint32
}

// Calls returns every call expression in t, each attributed to its
// innermost enclosing definition (symbol range containment stands in
// for walking the parent chain to a definition node — spec §4.4
// leaves caller resolution at file scope implementation-defined).
// functionFilter, if non-empty, retains only edges whose caller name
// is an exact match.
func Calls(pool *parser.Pool, t *parser.Tree, path, functionFilter string) []types.CallEdge {
	enclosers := enclosingSymbols(pool, t)

	seen := make(map[string]bool)
	var edges []types.CallEdge
	pool.EachMatch(t, parser.TagCalls, func(m parser.Match) bool {
		callee, ok := m.Names["callee"]
		if !ok {
			return true
		}
		calleeLoc := parser.NodeLoc(path, callee)
		caller := callerFor(enclosers, parser.NodeLoc(path, m.Node))
		if functionFilter != "" && caller.Name != functionFilter {
			return true
		}
		// I2 dedup key is (caller line, callee line, callee column).
		dedup := fmt.Sprintf("%d|%d|%d", caller.Line, calleeLoc.Line, calleeLoc.Column)
		if seen[dedup] {
			return true
		}
		seen[dedup] = true
		edges = append(edges, types.CallEdge{
			Caller: caller,
			Callee: types.CalleeRef{Name: parser.NodeText(callee, t.Source), Line: calleeLoc.Line, Column: calleeLoc.Column},
			CallSite: calleeLoc,
		})
		return true
	})
	return edges
}

// EnclosingCallerFor returns the smallest symbol in t containing loc
// (line/column, 1-based line, 0-based byte column), or the synthetic
// "<file>" symbol when no definition contains it. Used by the impact
// analyzer to attribute a reference hit to its enclosing caller.
func EnclosingCallerFor(pool *parser.Pool, t *parser.Tree, loc types.Location) types.Symbol {
	return callerFor(enclosingSymbols(pool, t), loc)
}

func enclosingSymbols(pool *parser.Pool, t *parser.Tree) []enclosing {
	syms := Symbols(pool, t, FormFull)
	out := make([]enclosing, 0, len(syms))
	for _, s := range syms {
		if s.Range == nil {
			continue
		}
		out = append(out, enclosing{
			sym:       s,
			startLine: s.Range.Start.Line, startCol: s.Range.Start.Column,
			endLine: s.Range.End.Line, endCol: s.Range.End.Column,
		})
	}
	return out
}

// callerFor returns the smallest enclosing symbol containing loc, or
// the synthetic "<file>" symbol when none contains it.
func callerFor(enclosers []enclosing, loc types.Location) types.Symbol {
	var best *enclosing
	for i := range enclosers {
		e := &enclosers[i]
		if !contains(*e, loc) {
			continue
		}
		if best == nil || smaller(*e, *best) {
			best = e
		}
	}
	if best == nil {
		return types.Symbol{Name: "<file>", Kind: types.KindFile, Line: 1}
	}
	return best.sym
}

func contains(e enclosing, loc types.Location) bool {
	if loc.Line < e.startLine || loc.Line > e.endLine {
		return false
	}
	if loc.Line == e.startLine && loc.Column < e.startCol {
		return false
	}
	if loc.Line == e.endLine && loc.Column >= e.endCol {
		return false
	}
	return true
}

func smaller(a, b enclosing) bool {
	aSpan := (int64(a.endLine)-int64(a.startLine))*1_000_000 + int64(a.endCol) - int64(a.startCol)
	bSpan := (int64(b.endLine)-int64(b.startLine))*1_000_000 + int64(b.endCol) - int64(b.startCol)
	return aSpan < bSpan
}
