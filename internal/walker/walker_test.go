package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "vendor", "dep.go"), "package dep")
	writeFile(t, filepath.Join(root, "build", "out.go"), "package out")
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n")
	writeFile(t, filepath.Join(root, "debug.log"), "noise")

	got, err := Walk(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{".gitignore", "main.go"}, got)
}

func TestWalkGlobalIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a")
	writeFile(t, filepath.Join(root, "secrets.env"), "KEY=1")
	writeFile(t, filepath.Join(root, ".astro-sightignore"), "*.env\n")

	got, err := Walk(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{".astro-sightignore", "a.go"}, got)
}

func TestWalkGlobFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.go"), "package a")
	writeFile(t, filepath.Join(root, "src", "b.py"), "x = 1")

	got, err := Walk(context.Background(), root, Options{Glob: "**/*.go"})
	require.NoError(t, err)
	require.Equal(t, []string{"src/a.go"}, got)
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z.go"), "")
	writeFile(t, filepath.Join(root, "a.go"), "")
	writeFile(t, filepath.Join(root, "m", "n.go"), "")

	got, err := Walk(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"a.go", "m/n.go", "z.go"}, got)
}

func TestWalkSymlinkLoopBroken(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "real", "file.go"), "package real")
	loopPath := filepath.Join(root, "real", "loop")
	if err := os.Symlink(filepath.Join(root, "real"), loopPath); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := Walk(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Contains(t, got, "real/file.go")
}
