// Package walker implements the Repo Walker (spec §4.6): a parallel
// directory iterator that honors .gitignore-style ignore files and an
// optional glob filter, returning files in a deterministic order.
package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/owayo/astro-sight/internal/config"
)

// Options configures a Walk call.
type Options struct {
	// Glob, if non-empty, retains only paths (relative to root, slash
	// separated) matching this doublestar pattern.
	Glob string
	// NoGlobalIgnore disables loading root/.astro-sightignore.
	NoGlobalIgnore bool
}

// Walk returns every non-ignored, glob-matching regular file under
// root, as paths relative to root using forward slashes, sorted for
// determinism (spec §4.6: "implementation-defined but deterministic
// order per run").
func Walk(ctx context.Context, root string, opts Options) ([]string, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "walk", Path: root, Err: os.ErrInvalid}
	}

	global := config.NewIgnoreParser()
	for _, pat := range config.DefaultIgnores {
		global.AddPattern(pat)
	}
	if !opts.NoGlobalIgnore {
		_ = global.Load(filepath.Join(root, config.GlobalIgnoreFile))
	}

	visited := &visitedSet{seen: make(map[string]bool)}
	results := &fileList{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return walkDir(gctx, g, root, root, "", []*config.IgnoreParser{global}, visited, results)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files := results.drain()
	if opts.Glob != "" {
		filtered := files[:0]
		for _, f := range files {
			if ok, _ := doublestar.Match(opts.Glob, f); ok {
				filtered = append(filtered, f)
			}
		}
		files = filtered
	}
	sort.Strings(files)
	return files, nil
}

// walkDir lists dir, applies the accumulated ignore chain (root's
// global ignore plus every .gitignore from root down to dir), and
// recurses into subdirectories concurrently via g.Go. rel is dir's
// path relative to root (empty string at the root itself).
func walkDir(ctx context.Context, g *errgroup.Group, root, dir, rel string, chain []*config.IgnoreParser, visited *visitedSet, results *fileList) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !visited.enter(dir) {
		return nil // symlink loop: already visited this resolved directory
	}

	local := config.NewIgnoreParser()
	_ = local.Load(filepath.Join(dir, ".gitignore"))
	if !local.Empty() {
		// Sibling directories share the parent's chain slice; appending
		// in place would race on the backing array, so extend into a
		// fresh one instead of growing chain directly.
		extended := make([]*config.IgnoreParser, len(chain), len(chain)+1)
		copy(extended, chain)
		chain = append(extended, local)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		entryRel := e.Name()
		if rel != "" {
			entryRel = rel + "/" + e.Name()
		}

		isDir := e.IsDir()
		target := dir
		if e.Type()&os.ModeSymlink != 0 {
			resolved, ok := resolveWithinRoot(root, filepath.Join(dir, e.Name()))
			if !ok {
				continue // symlink escapes the workspace root or is broken
			}
			fi, err := os.Stat(resolved)
			if err != nil {
				continue
			}
			isDir = fi.IsDir()
			target = filepath.Dir(resolved)
			if isDir {
				target = resolved
			}
		}

		if ignoredByChain(chain, entryRel, isDir) {
			continue
		}

		if isDir {
			childDir := filepath.Join(dir, e.Name())
			if e.Type()&os.ModeSymlink != 0 {
				childDir = target
			}
			chainCopy := chain
			g.Go(func() error {
				return walkDir(ctx, g, root, childDir, entryRel, chainCopy, visited, results)
			})
			continue
		}

		results.add(entryRel)
	}
	return nil
}

func ignoredByChain(chain []*config.IgnoreParser, path string, isDir bool) bool {
	ignored := false
	for _, p := range chain {
		if p.ShouldIgnore(path, isDir) {
			ignored = true
		}
	}
	return ignored
}

// resolveWithinRoot resolves a symlink and reports whether its target
// lies within root; returns the resolved path and false otherwise.
func resolveWithinRoot(root, path string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return resolved, true
}

type visitedSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

// enter returns true the first time dir (after symlink resolution) is
// seen, false on repeat visits, breaking symlink cycles.
func (v *visitedSet) enter(dir string) bool {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen[resolved] {
		return false
	}
	v.seen[resolved] = true
	return true
}

type fileList struct {
	mu    sync.Mutex
	paths []string
}

func (f *fileList) add(p string) {
	f.mu.Lock()
	f.paths = append(f.paths, p)
	f.mu.Unlock()
}

func (f *fileList) drain() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.paths))
	copy(out, f.paths)
	return out
}
