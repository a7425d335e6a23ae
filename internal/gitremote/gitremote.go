// Package gitremote wraps the git subprocess for the two things the
// Impact Analyzer and Co-change Miner need: reading a file's content
// at a ref, and listing the paths each of the last N commits touched.
// Adapted from the teacher's internal/git provider (same
// exec.CommandContext dispatch; paths read from --name-only output), narrowed
// to the operations those two components call.
package gitremote

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/owayo/astro-sight/internal/errs"
)

// Repo wraps git invocations rooted at a working directory.
type Repo struct {
	root string
}

// Open returns a Repo rooted at dir. It does not verify dir is inside
// a git working tree; the first git invocation will fail with
// GitError if it isn't.
func Open(dir string) *Repo {
	return &Repo{root: dir}
}

func (r *Repo) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errs.Wrap(errs.GitError, err, "git %s: %s", strings.Join(args, " "), msg)
	}
	return out, nil
}

// Show returns the content of path at ref ("HEAD", a commit hash, or
// ":0" for the index). A path that doesn't exist at ref is a GitError.
func (r *Repo) Show(ctx context.Context, ref, path string) ([]byte, error) {
	return r.run(ctx, "show", ref+":"+path)
}

// Diff returns unified diff text for the working tree relative to
// base, or the staged index when staged is true.
func (r *Repo) Diff(ctx context.Context, base string, staged bool) (string, error) {
	args := []string{"diff", "--no-color"}
	if staged {
		args = append(args, "--cached")
	}
	if base != "" {
		args = append(args, base)
	}
	out, err := r.run(ctx, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CommitPaths is one commit's hash and the paths it touched, used by
// the co-change miner.
type CommitPaths struct {
	Hash  string
	Paths []string
}

// Log returns the last lookback commits (most recent first), each
// with the list of paths it touched, via "git log --name-only".
func (r *Repo) Log(ctx context.Context, lookback int, pathFilter string) ([]CommitPaths, error) {
	args := []string{"log", "--name-only", "--no-merges", "--format=%x00%H", "-n", strconv.Itoa(lookback)}
	if pathFilter != "" {
		args = append(args, "--", pathFilter)
	}
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseLog(out), nil
}

func parseLog(out []byte) []CommitPaths {
	var commits []CommitPaths
	var cur *CommitPaths

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "\x00") {
			if cur != nil {
				commits = append(commits, *cur)
			}
			cur = &CommitPaths{Hash: strings.TrimPrefix(line, "\x00")}
			continue
		}
		if line == "" || cur == nil {
			continue
		}
		cur.Paths = append(cur.Paths, line)
	}
	if cur != nil {
		commits = append(commits, *cur)
	}
	return commits
}
