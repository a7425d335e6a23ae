package refscan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

func writeGoFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFindDefinitionBeforeReferences(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "main.go", `package main

func helper() {}

func main() {
	helper()
	helper()
}
`)

	pool := parser.NewPool()
	refs, err := Find(context.Background(), pool, root, "helper", "")
	require.NoError(t, err)
	require.Len(t, refs, 3)
	require.Equal(t, types.RefKindDefinition, refs[0].Kind)
	require.Equal(t, types.RefKindReference, refs[1].Kind)
	require.Equal(t, types.RefKindReference, refs[2].Kind)
}

func TestFindEmptyNameIsInvalidRequest(t *testing.T) {
	pool := parser.NewPool()
	_, err := Find(context.Background(), pool, t.TempDir(), "", "")
	require.Error(t, err)
}

func TestFindBatchGroupsBySymbol(t *testing.T) {
	root := t.TempDir()
	writeGoFile(t, root, "a.go", "package main\nfunc alpha() {}\n")
	writeGoFile(t, root, "b.go", "package main\nfunc beta() { alpha() }\n")

	pool := parser.NewPool()
	results, err := FindBatch(context.Background(), pool, root, []string{"alpha", "beta"}, "")
	require.NoError(t, err)
	require.Len(t, results["alpha"], 2)
	require.Len(t, results["beta"], 1)
}

func TestFindBatchAllEmptyNamesIsInvalidRequest(t *testing.T) {
	pool := parser.NewPool()
	_, err := FindBatch(context.Background(), pool, t.TempDir(), []string{"", ""}, "")
	require.Error(t, err)
}
