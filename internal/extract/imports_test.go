package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

func TestImportsDistinguishesRequireFromOrdinaryCall(t *testing.T) {
	p := parser.NewPool()
	src := []byte("const fs = require(\"fs\");\nlog(\"x\");\nassert(\"y\");\n")
	tree, err := p.Parse(types.LangJavaScript, src)
	require.NoError(t, err)
	defer tree.Close()

	edges := Imports(p, tree)
	require.Len(t, edges, 1)
	require.Equal(t, types.ImportKindRequire, edges[0].Kind)
	require.Equal(t, "fs", edges[0].Source)
}

func TestImportsStaticAndRequireBothReported(t *testing.T) {
	p := parser.NewPool()
	src := []byte("import foo from \"foo\";\nconst bar = require(\"bar\");\n")
	tree, err := p.Parse(types.LangJavaScript, src)
	require.NoError(t, err)
	defer tree.Close()

	edges := Imports(p, tree)
	require.Len(t, edges, 2)
	require.Equal(t, "foo", edges[0].Source)
	require.Equal(t, types.ImportKindImport, edges[0].Kind)
	require.Equal(t, "bar", edges[1].Source)
	require.Equal(t, types.ImportKindRequire, edges[1].Kind)
}
