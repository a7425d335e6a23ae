// Package parser owns the tree-sitter parser pool (one parser+query set
// per language, created lazily and reused for the process lifetime) and
// the thin query-execution helpers the extractors build on.
package parser

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/owayo/astro-sight/internal/errs"
	"github.com/owayo/astro-sight/internal/lang"
	"github.com/owayo/astro-sight/internal/types"
)

// Tree is a parsed file: the tree-sitter tree plus the source bytes it
// was built from (extractors need both to slice node text).
type Tree struct {
	Language types.Language
	Source   []byte
	Root     *tree_sitter.Tree
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.Root != nil {
		t.Root.Close()
	}
}

// entry is one language's lazily-initialized parser + queries.
type entry struct {
	once    sync.Once
	parser  *tree_sitter.Parser
	lang    *tree_sitter.Language
	queries map[string]*tree_sitter.Query // query tag -> compiled query
	mu      sync.Mutex                    // serializes Parse calls: parsers are not safe for concurrent use
}

// Pool holds one entry per supported language, shared by every worker.
// A leased-exclusive mutex per language (not per worker) is sufficient
// here because extraction is CPU-bound and short; the alternative of
// one parser per worker thread is unnecessary at this scale.
type Pool struct {
	mu      sync.RWMutex
	entries map[types.Language]*entry
}

// NewPool constructs an empty pool; languages are initialized on first use.
func NewPool() *Pool {
	return &Pool{entries: make(map[types.Language]*entry)}
}

func (p *Pool) entryFor(l types.Language) *entry {
	p.mu.RLock()
	e, ok := p.entries[l]
	p.mu.RUnlock()
	if ok {
		return e
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok = p.entries[l]; ok {
		return e
	}
	e = &entry{queries: make(map[string]*tree_sitter.Query)}
	p.entries[l] = e
	return e
}

// Parse converts (language, bytes) into a Tree. Parses are total:
// tree-sitter always produces a tree, with error nodes tolerated and
// surfaced by the caller as diagnostics.
func (p *Pool) Parse(l types.Language, src []byte) (*Tree, error) {
	if len(src) > types.MaxBlobSize {
		return nil, errs.New(errs.FileTooLarge, "blob exceeds %d bytes", types.MaxBlobSize)
	}
	if !lang.Supported(l) {
		return nil, errs.New(errs.LanguageUnsupported, "no grammar for language %q", l)
	}
	e := p.entryFor(l)
	var initErr error
	e.once.Do(func() {
		initErr = setupLanguage(l, e)
	})
	if initErr != nil {
		return nil, errs.Wrap(errs.LanguageUnsupported, initErr, "failed to initialize grammar for %q", l)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	tree := e.parser.Parse(src, nil)
	if tree == nil {
		return nil, errs.New(errs.ParseError, "grammar produced no tree for language %q", l)
	}
	return &Tree{Language: l, Source: src, Root: tree}, nil
}

// Query returns the compiled query for (language, tag), or nil if the
// language has no pattern registered under that tag.
func (p *Pool) Query(l types.Language, tag string) *tree_sitter.Query {
	e := p.entryFor(l)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queries[tag]
}

// LanguageHandle returns the compiled *tree_sitter.Language for l,
// initializing it first if necessary. Used by callers (e.g. the lint
// rule engine) that need to compile an ad-hoc query against a
// language already loaded into the pool.
func (p *Pool) LanguageHandle(l types.Language) *tree_sitter.Language {
	e := p.entryFor(l)
	e.once.Do(func() { _ = setupLanguage(l, e) })
	return e.lang
}

// HasGrammar reports whether l successfully initialized (after at least
// one Parse call); used by doctor to report loaded languages.
func (p *Pool) HasGrammar(l types.Language) bool {
	p.mu.RLock()
	e, ok := p.entries[l]
	p.mu.RUnlock()
	return ok && e.lang != nil
}
