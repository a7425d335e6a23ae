package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

func TestLintQueryRuleHonorsEqPredicate(t *testing.T) {
	p := parser.NewPool()
	src := []byte("package main\n\nfunc init() {}\n\nfunc setup() {}\n")
	tree, err := p.Parse(types.LangGo, src)
	require.NoError(t, err)
	defer tree.Close()

	rule := Rule{
		ID:       "no-init",
		Language: types.LangGo,
		Severity: "warn",
		Message:  "avoid init()",
		Query:    `(function_declaration name: (identifier) @fn (#eq? @fn "init")) @decl`,
	}
	findings := Lint(p, tree, "main.go", []Rule{rule})
	require.Len(t, findings, 1)
	require.Equal(t, uint32(3), findings[0].Location.Line)
}
