package extract

import (
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

// Rule is one lint rule: either Query (an S-expression pattern, first
// capture anchors the report) or Pattern (an identifier-node exact
// text match).
type Rule struct {
	ID       string
	Language types.Language
	Severity string
	Message  string
	Query    string
	Pattern  string
}

// Finding is one lint rule violation.
type Finding struct {
	RuleID   string   `json:"rule_id"`
	Severity string   `json:"severity"`
	Message  string   `json:"message"`
	Location types.Location `json:"location"`
}

var identifierKinds = map[string]bool{
	"identifier": true, "field_identifier": true, "type_identifier": true,
	"property_identifier": true, "simple_identifier": true, "name": true,
	"word": true, "shorthand_property_identifier": true,
}

// IsIdentifier reports whether a tree-sitter node kind belongs to the
// "identifier" class shared across the supported grammars: plain
// names, field/property accessors, and type references. Used by both
// lint pattern rules and the reference scanner.
func IsIdentifier(kind string) bool {
	return identifierKinds[kind]
}

// Lint runs every rule whose Language matches t's language against t,
// returning findings in source order.
func Lint(pool *parser.Pool, t *parser.Tree, path string, rules []Rule) []Finding {
	var findings []Finding
	for _, r := range rules {
		if r.Language != t.Language {
			continue
		}
		switch {
		case r.Query != "":
			findings = append(findings, runQueryRule(pool, t, path, r)...)
		case r.Pattern != "":
			findings = append(findings, runPatternRule(t, path, r)...)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Location.Line != findings[j].Location.Line {
			return findings[i].Location.Line < findings[j].Location.Line
		}
		return findings[i].Location.Column < findings[j].Location.Column
	})
	return findings
}

func runQueryRule(pool *parser.Pool, t *parser.Tree, path string, r Rule) []Finding {
	query, err := tree_sitter.NewQuery(queryLanguage(pool, t), r.Query)
	if query == nil || err != nil {
		return nil
	}
	defer query.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	var findings []Finding
	matches := qc.Matches(query, t.Root.RootNode(), t.Source)
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		if !m.SatisfiesTextPredicate(query, nil, nil, t.Source) {
			continue
		}
		if len(m.Captures) == 0 {
			continue
		}
		anchor := m.Captures[0].Node
		findings = append(findings, Finding{
			RuleID: r.ID, Severity: r.Severity, Message: r.Message,
			Location: parser.NodeLoc(path, anchor),
		})
	}
	return findings
}

// queryLanguage recovers the *tree_sitter.Language for t by forcing a
// (cheap, memoized) parse-pool lookup; the pool always holds it once
// t itself was produced by Parse.
func queryLanguage(pool *parser.Pool, t *parser.Tree) *tree_sitter.Language {
	return pool.LanguageHandle(t.Language)
}

func runPatternRule(t *parser.Tree, path string, r Rule) []Finding {
	var findings []Finding
	walkIdentifiers(t.Root.RootNode(), func(n tree_sitter.Node) {
		if parser.NodeText(n, t.Source) != r.Pattern {
			return
		}
		findings = append(findings, Finding{
			RuleID: r.ID, Severity: r.Severity, Message: r.Message,
			Location: parser.NodeLoc(path, n),
		})
	})
	return findings
}

func walkIdentifiers(n *tree_sitter.Node, visit func(tree_sitter.Node)) {
	if n == nil {
		return
	}
	if identifierKinds[n.Kind()] {
		visit(*n)
	}
	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		walkIdentifiers(n.NamedChild(i), visit)
	}
}
