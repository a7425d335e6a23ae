// Package refscan implements the Reference Scanner (spec §4.7):
// single-symbol and batch-symbol identifier search across a walked
// file set, classifying each hit as a definition or a usage.
package refscan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/owayo/astro-sight/internal/errs"
	"github.com/owayo/astro-sight/internal/extract"
	"github.com/owayo/astro-sight/internal/lang"
	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/types"
	"github.com/owayo/astro-sight/internal/walker"
)

// Find runs a single-symbol search: every identifier-class node across
// the walked file set whose text equals name, classified as
// definition or reference. Ordering satisfies I3 (definitions first,
// then path/line/column).
func Find(ctx context.Context, pool *parser.Pool, root, name, glob string) ([]types.Reference, error) {
	if name == "" {
		return nil, errs.New(errs.InvalidRequest, "name must not be empty")
	}
	results, err := FindBatch(ctx, pool, root, []string{name}, glob)
	if err != nil {
		return nil, err
	}
	return results[name], nil
}

// FindBatch runs a batch search: every file is parsed and traversed
// exactly once, with identifier text looked up in a set of names, for
// an O(N + S·R) cost rather than O(S·N) (spec §4.7). The result maps
// each requested name to its references in I3 order.
func FindBatch(ctx context.Context, pool *parser.Pool, root string, names []string, glob string) (map[string][]types.Reference, error) {
	nameSet := map[string]bool{}
	for _, n := range names {
		if n != "" {
			nameSet[n] = true
		}
	}
	if len(nameSet) == 0 {
		return nil, errs.New(errs.InvalidRequest, "names must contain at least one non-empty entry")
	}

	paths, err := walker.Walk(ctx, root, walker.Options{Glob: glob})
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	out := make(map[string][]types.Reference, len(nameSet))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, rel := range paths {
		rel := rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			refs := scanFile(pool, root, rel, nameSet)
			if len(refs) == 0 {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for n, rs := range refs {
				out[n] = append(out[n], rs...)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for n := range out {
		sortReferences(out[n])
	}
	return out, nil
}

func scanFile(pool *parser.Pool, root, rel string, names map[string]bool) map[string][]types.Reference {
	full := filepath.Join(root, rel)
	src, err := os.ReadFile(full)
	if err != nil {
		return nil
	}
	l := lang.Detect(full, firstLine(src))
	if !lang.Supported(l) {
		return nil
	}
	t, err := pool.Parse(l, src)
	if err != nil {
		return nil
	}
	defer t.Close()

	out := make(map[string][]types.Reference)
	walkIdentifiers(t.Root.RootNode(), func(n tree_sitter.Node) {
		text := parser.NodeText(n, src)
		if !names[text] {
			return
		}
		loc := parser.NodeLoc(rel, n)
		out[text] = append(out[text], types.Reference{
			Path:    rel,
			Line:    loc.Line,
			Column:  loc.Column,
			Context: lineContext(src, loc.Line),
			Kind:    classify(n),
		})
	})
	return out
}

// classify reports a node as a definition when it occupies the "name"
// field of its parent (the binding site for functions, types,
// variables, and parameters across every supported grammar); every
// other identifier occurrence is a usage.
func classify(n tree_sitter.Node) types.ReferenceKind {
	parent := n.Parent()
	if parent == nil {
		return types.RefKindReference
	}
	nameField := parent.ChildByFieldName("name")
	if nameField != nil && nameField.StartByte() == n.StartByte() && nameField.EndByte() == n.EndByte() {
		return types.RefKindDefinition
	}
	return types.RefKindReference
}

func walkIdentifiers(n *tree_sitter.Node, visit func(tree_sitter.Node)) {
	if n == nil {
		return
	}
	if extract.IsIdentifier(n.Kind()) {
		visit(*n)
	}
	count := n.NamedChildCount()
	for i := uint32(0); i < count; i++ {
		walkIdentifiers(n.NamedChild(i), visit)
	}
}

// sortReferences applies I3: definitions before references, then by
// path, line, column.
func sortReferences(refs []types.Reference) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if (a.Kind == types.RefKindDefinition) != (b.Kind == types.RefKindDefinition) {
			return a.Kind == types.RefKindDefinition
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

func firstLine(src []byte) []byte {
	for i, b := range src {
		if b == '\n' {
			return src[:i]
		}
	}
	return src
}

func lineContext(src []byte, line uint32) string {
	lines := splitLines(src)
	idx := int(line) - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return lines[idx]
}

func splitLines(src []byte) []string {
	var lines []string
	start := 0
	for i, b := range src {
		if b == '\n' {
			lines = append(lines, string(src[start:i]))
			start = i + 1
		}
	}
	lines = append(lines, string(src[start:]))
	return lines
}
