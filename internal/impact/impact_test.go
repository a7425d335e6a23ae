package impact

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("config", "commit.gpgsign", "false")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.go"), []byte(`package main

func helper(x int) int {
	return x + 1
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(`package main

func main() {
	helper(1)
}
`), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestAnalyzeDetectsSignatureChangeAndCaller(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.go"), []byte(`package main

func helper(x int, y int) int {
	return x + y
}
`), 0o644))

	pool := parser.NewPool()
	result, err := Analyze(context.Background(), pool, dir, Options{UseGit: true, BaseRef: "HEAD"})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.Equal(t, "lib.go", result.Files[0].Path)

	var modified bool
	for _, s := range result.Files[0].AffectedSymbols {
		if s.Name == "helper" && s.ChangeType == types.ChangeModified {
			modified = true
		}
	}
	require.True(t, modified)
	require.Len(t, result.Files[0].SignatureChanges, 1)
	require.Equal(t, "helper", result.Files[0].SignatureChanges[0].Name)

	var foundCaller bool
	for _, c := range result.ImpactedCallers {
		if c.Path == "main.go" && c.Name == "main" {
			foundCaller = true
		}
	}
	require.True(t, foundCaller)
}
