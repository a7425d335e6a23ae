package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/types"
)

func TestParseGoReturnsParsedTree(t *testing.T) {
	p := NewPool()
	tree, err := p.Parse(types.LangGo, []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	defer tree.Close()
	require.Equal(t, types.LangGo, tree.Language)
	require.False(t, tree.Root.RootNode().HasError())
}

func TestParseUnsupportedLanguageIsRejected(t *testing.T) {
	p := NewPool()
	_, err := p.Parse(types.Language("cobol"), []byte("x"))
	require.Error(t, err)
}

func TestParseOversizedBlobIsRejected(t *testing.T) {
	p := NewPool()
	_, err := p.Parse(types.LangGo, make([]byte, types.MaxBlobSize+1))
	require.Error(t, err)
}

func TestLanguageHandleInitializesOncePerLanguage(t *testing.T) {
	p := NewPool()
	h1 := p.LanguageHandle(types.LangGo)
	h2 := p.LanguageHandle(types.LangGo)
	require.NotNil(t, h1)
	require.Same(t, h1, h2)
}

func TestHasGrammarReflectsInitializationState(t *testing.T) {
	p := NewPool()
	require.False(t, p.HasGrammar(types.LangPython))
	_, err := p.Parse(types.LangPython, []byte("def f():\n    pass\n"))
	require.NoError(t, err)
	require.True(t, p.HasGrammar(types.LangPython))
}
