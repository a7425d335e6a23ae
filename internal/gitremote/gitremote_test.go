package gitremote

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
	run("init", "-q")
	run("config", "commit.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package main\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main\n\nfunc a() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package main\n\nfunc b() {}\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "second touches both files")
	return dir
}

func TestShowReadsBlobAtHead(t *testing.T) {
	dir := initRepo(t)
	r := Open(dir)
	content, err := r.Show(context.Background(), "HEAD", "a.go")
	require.NoError(t, err)
	require.Contains(t, string(content), "func a()")
}

func TestLogReturnsCommitPaths(t *testing.T) {
	dir := initRepo(t)
	r := Open(dir)
	commits, err := r.Log(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	require.ElementsMatch(t, []string{"a.go", "b.go"}, commits[0].Paths)
}
