package cochange

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
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
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	run("init", "-q")
	run("config", "commit.gpgsign", "false")

	write("a.go", "v1")
	write("b.go", "v1")
	run("add", ".")
	run("commit", "-q", "-m", "c1")

	write("a.go", "v2")
	write("b.go", "v2")
	run("add", ".")
	run("commit", "-q", "-m", "c2 touches both again")

	write("c.go", "v1")
	run("add", ".")
	run("commit", "-q", "-m", "c3 unrelated file")

	return dir
}

func TestMineFindsCoChangingPair(t *testing.T) {
	dir := initRepo(t)
	pairs, err := Mine(context.Background(), dir, Options{MinConfidence: 0.01})
	require.NoError(t, err)
	require.NotEmpty(t, pairs)
	require.Equal(t, "a.go", pairs[0].FileA)
	require.Equal(t, "b.go", pairs[0].FileB)
	require.Equal(t, 2, pairs[0].CoChanges)
	require.InDelta(t, 1.0, pairs[0].Confidence, 0.001)
}

func TestMinePathFilter(t *testing.T) {
	dir := initRepo(t)
	pairs, err := Mine(context.Background(), dir, Options{MinConfidence: 0.01, PathFilter: "c.go"})
	require.NoError(t, err)
	for _, p := range pairs {
		require.True(t, p.FileA == "c.go" || p.FileB == "c.go")
	}
}
